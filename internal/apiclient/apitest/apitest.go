// Package apitest provides a scripted fake of the Monocart REST API for tests.
package apitest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"monocart/internal/apiclient"
)

// Call is a request received by the fake API
type Call struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Reply is a scripted response
type Reply struct {
	Status int
	Body   string
}

// Server records every request and answers from a route table keyed by "METHOD /path"
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []Call
}

// New starts a fake API server; it is closed when the test ends
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{routes: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// APIClient returns an adapter pointed at the fake server
func (s *Server) APIClient(t *testing.T) *apiclient.Client {
	t.Helper()

	client, err := apiclient.New(s.URL, apiclient.WithHTTPClient(s.Server.Client()))
	require.NoError(t, err)
	return client
}

// Handle registers a handler for "METHOD /path"
func (s *Server) Handle(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = h
}

// Reply registers a canned JSON reply for "METHOD /path"
func (s *Server) Reply(route string, status int, body string) {
	s.Handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

// Calls returns the recorded requests
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of recorded requests
func (s *Server) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

