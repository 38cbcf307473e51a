package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"monocart/internal/apiclient/apitest"
	"monocart/internal/config"
	"monocart/internal/middleware"
	"monocart/internal/normalize"
	"monocart/internal/session"
	"monocart/internal/storage"
	"monocart/internal/store"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type gateway struct {
	router  http.Handler
	api     *apitest.Server
	session *session.Session
	store   *store.Store
	now     time.Time
}

func newGateway(t *testing.T) *gateway {
	t.Helper()

	g := &gateway{api: apitest.New(t), now: testNow}
	clock := func() time.Time { return g.now }
	logger := zap.NewNop()

	norm, err := normalize.New("https://cdn.monocart.test")
	require.NoError(t, err)

	g.session = session.New(g.api.APIClient(t), storage.NewMemory(), logger, session.WithClock(clock))
	g.store = store.New(store.Deps{
		API:            g.api.APIClient(t),
		Normalizer:     norm,
		Logger:         logger,
		OnUnauthorized: g.session.OnUnauthorized,
		Now:            clock,
	}, config.StalenessConfig{
		Products:      2 * time.Minute,
		Categories:    5 * time.Minute,
		Subcategories: 5 * time.Minute,
		Orders:        2 * time.Minute,
		Users:         5 * time.Minute,
	}, g.session)

	requireSession := middleware.RequireSession(g.session, logger)
	requireAdmin := middleware.RequireAdmin(logger)

	r := chi.NewRouter()

	catalog := NewCatalogHandler(g.store, logger)
	catalog.now = clock
	catalog.RegisterRoutes(r)

	orders := NewOrderHandler(g.session, g.store, logger)
	orders.now = clock
	orders.RegisterRoutes(r, requireSession)

	admin := NewAdminHandler(g.session, g.store, logger)
	admin.now = clock
	admin.RegisterRoutes(r, requireSession, requireAdmin)

	NewSessionHandler(g.session, g.store, logger).RegisterRoutes(r, requireSession)
	NewCartHandler(g.session, g.store, logger).RegisterRoutes(r, requireSession)

	g.router = r
	return g
}

func (g *gateway) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func (g *gateway) login(t *testing.T, role string) {
	t.Helper()

	g.api.Reply("POST /auth/login", http.StatusOK, fmt.Sprintf(
		`{"token":"tok","user":{"id":"u1","name":"Ann","email":"ann@example.com","role":%q}}`, role))

	w := g.do(t, http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// callsTo counts recorded API requests for "METHOD /path"
func (g *gateway) callsTo(route string) int {
	n := 0
	for _, c := range g.api.Calls() {
		if c.Method+" "+c.Path == route {
			n++
		}
	}
	return n
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v))
	return v
}
