package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"monocart/internal/validate"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api", WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return client, &calls
}

// Property: joining never produces double slashes or drops one
func TestProperty_URLJoinHasExactlyOneSlash(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("base and path are joined by exactly one slash", prop.ForAll(
		func(baseSlash bool, leadingSlash bool, segment string) bool {
			base := "https://api.monocart.shop/api"
			if baseSlash {
				base += "/"
			}
			path := segment + "/all"
			if leadingSlash {
				path = "/" + path
			}

			client, err := New(base)
			if err != nil {
				return false
			}
			return client.URL(path, nil) == "https://api.monocart.shop/api/"+segment+"/all"
		},
		gen.Bool(),
		gen.Bool(),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := New("/api")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestURL_EncodesQuery(t *testing.T) {
	client, err := New("http://localhost:5000/api/")
	require.NoError(t, err)

	got := client.URL("products/all", url.Values{"category": {"2"}})
	assert.Equal(t, "http://localhost:5000/api/products/all?category=2", got)
}

func TestDo_SendsJSONAndBearerToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categories/create", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Shoes", body["name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":7,"name":"Shoes"}}`))
	})

	raw, err := client.Post(context.Background(), "/categories/create", map[string]string{"name": "Shoes"}, "tok-123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":7,"name":"Shoes"}}`, string(raw))
}

func TestDo_OmitsAuthorizationWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	_, err := client.Get(context.Background(), "categories/all", nil, "")
	require.NoError(t, err)
}

func TestDo_EmptyBodyIsNull(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := client.Delete(context.Background(), "categories/delete/3", "tok")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestDo_NonJSONSuccessIsMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>ok</html>`))
	})

	_, err := client.Get(context.Background(), "products/all", nil, "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, "Unexpected response from server", Message(err))
}

func TestDo_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"message field", http.StatusBadRequest, "application/json", `{"message":"Category already exists"}`, "Category already exists"},
		{"error string", http.StatusConflict, "application/json", `{"error":"duplicate slug"}`, "duplicate slug"},
		{"nested error", http.StatusUnprocessableEntity, "application/json", `{"error":{"message":"price must be positive"}}`, "price must be positive"},
		{"plain text", http.StatusNotFound, "text/plain; charset=utf-8", "Product not found", "Product not found"},
		{"status text fallback", http.StatusInternalServerError, "text/html", "<h1>boom</h1>", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Get(context.Background(), "products/9", nil, "")

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, tt.want, Message(err))
			assert.False(t, IsUnauthorized(err))
		})
	}
}

func TestDo_UnauthorizedIsDistinguished(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"jwt expired"}`))
	})

	_, err := client.Get(context.Background(), "users/all", nil, "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Your session has expired, please log in again", Message(err))
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := New(server.URL, WithTimeout(time.Second))
	require.NoError(t, err)
	server.Close()

	_, err = client.Get(context.Background(), "products/all", nil, "")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "Network error: unable to reach the server", Message(err))
}

func TestDo_MultipartForm(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Runner", r.FormValue("title"))
		assert.Equal(t, "59.9", r.FormValue("price"))

		file, header, err := r.FormFile("images")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "front.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(content))

		w.Write([]byte(`{"data":{"id":"p1"}}`))
	})

	form := NewForm().
		Set("title", "Runner").
		Set("price", "59.9").
		File("images", "front.jpg", strings.NewReader("jpeg-bytes"))

	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "products/create", Form: form, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "You must be logged in", Message(ErrNotAuthenticated))
	assert.Equal(t, "title: This field is required", Message(validate.Field("title", "This field is required")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
