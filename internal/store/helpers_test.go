package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"monocart/internal/apiclient/apitest"
	"monocart/internal/domain"
	"monocart/internal/normalize"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type unauthorizedRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *unauthorizedRecorder) hook(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *unauthorizedRecorder) Reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func newTestDeps(t *testing.T) (Deps, *apitest.Server, *unauthorizedRecorder) {
	t.Helper()

	api := apitest.New(t)
	norm, err := normalize.New("https://cdn.monocart.test")
	require.NoError(t, err)

	rec := &unauthorizedRecorder{}
	return Deps{
		API:            api.APIClient(t),
		Normalizer:     norm,
		Logger:         zap.NewNop(),
		OnUnauthorized: rec.hook,
		Now:            func() time.Time { return testNow },
	}, api, rec
}

type fakeSession struct {
	token string
	user  domain.User
}

func (s fakeSession) Token() string     { return s.token }
func (s fakeSession) User() domain.User { return s.user }
