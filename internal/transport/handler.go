// Package transport exposes the storefront state layer as a local JSON API.
// Handlers only translate HTTP to state-layer calls; every rule lives in the
// session and store packages.
package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"monocart/internal/middleware"
	"monocart/internal/validate"
)

// listResponse wraps a collection read from a slice
type listResponse[T any] struct {
	Items       []T        `json:"items"`
	Count       int        `json:"count"`
	LastFetched *time.Time `json:"lastFetched,omitempty"`
}

func newList[T any](items []T, lastFetched time.Time) listResponse[T] {
	resp := listResponse[T]{Items: items, Count: len(items)}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	if !lastFetched.IsZero() {
		resp.LastFetched = &lastFetched
	}
	return resp
}

// messageResponse is returned by actions that have no entity to show
type messageResponse struct {
	Message    string `json:"message"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// decode reads and validates a JSON body, writing the error response on failure
func decode(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithDomainError(w, err, logger)
		return false
	}
	return true
}

// queryID reads an optional positive integer query parameter; absent means zero
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	return parseID(name, raw)
}

// pathID reads a required positive integer path parameter
func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, chi.URLParam(r, name))
}

func parseID(name, raw string) (int64, error) {
	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return 0, validate.Field(name, "Must be a positive integer")
	}
	return id, nil
}
