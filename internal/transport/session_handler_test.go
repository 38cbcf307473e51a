package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monocart/internal/domain"
	"monocart/internal/middleware"
	"monocart/internal/session"
)

func TestSession_LoginLandsByRole(t *testing.T) {
	tests := []struct {
		role    string
		landing string
	}{
		{"user", session.RouteProfile},
		{"admin", session.RouteDashboard},
		{"superAdmin", session.RouteDashboard},
		{"owner", session.RouteProfile},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			g := newGateway(t)
			g.login(t, tt.role)

			resp := decodeBody[SessionResponse](t, g.do(t, http.MethodGet, "/api/session", ""))
			assert.True(t, resp.IsLoggedIn)
			assert.Equal(t, tt.landing, resp.LandingRoute)
			assert.Equal(t, "u1", resp.User.ID)
		})
	}
}

func TestSession_AnonymousLandsOnLogin(t *testing.T) {
	g := newGateway(t)

	resp := decodeBody[SessionResponse](t, g.do(t, http.MethodGet, "/api/session", ""))
	assert.False(t, resp.IsLoggedIn)
	assert.Equal(t, session.StateAnonymous, resp.State)
	assert.Equal(t, session.RouteLogin, resp.LandingRoute)
}

func TestSession_LoginRejected(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("POST /auth/login", http.StatusUnauthorized, `{"message":"Invalid credentials"}`)

	w := g.do(t, http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeBody[middleware.ErrorResponse](t, w)
	assert.Equal(t, "Invalid credentials", resp.Error.Message)
	assert.Nil(t, resp.Error.Details["redirect"])
	assert.False(t, g.session.IsLoggedIn())
}

func TestSession_LoginValidatedBeforeNetwork(t *testing.T) {
	g := newGateway(t)

	w := g.do(t, http.MethodPost, "/api/session/login", `{"email":"not-an-email","password":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody[middleware.ErrorResponse](t, w)
	assert.NotEmpty(t, resp.Error.Details["validation_errors"])
	assert.Zero(t, g.api.CallCount())
}

func TestSession_RegisterDoesNotAuthenticate(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("POST /auth/register", http.StatusCreated, `{"message":"registered"}`)

	w := g.do(t, http.MethodPost, "/api/session/register",
		`{"email":"ann@example.com","password":"secret1","name":"Ann","phone":"123"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, session.RouteLogin, decodeBody[messageResponse](t, w).RedirectTo)
	assert.False(t, g.session.IsLoggedIn())
}

func TestSession_LogoutClearsUserData(t *testing.T) {
	g := newGateway(t)
	g.login(t, "user")
	g.api.Reply("GET /orders/user/u1", http.StatusOK, `[{"id":"o1","status":"pending"}]`)
	require.Equal(t, http.StatusOK, g.do(t, http.MethodGet, "/api/orders", "").Code)
	require.Equal(t, 1, g.store.Orders.Len())

	w := g.do(t, http.MethodPost, "/api/session/logout", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, g.session.IsLoggedIn())
	assert.Zero(t, g.store.Orders.Len())

	// logging out twice is harmless
	assert.Equal(t, http.StatusOK, g.do(t, http.MethodPost, "/api/session/logout", "").Code)
}

func TestSession_UpdateProfile(t *testing.T) {
	g := newGateway(t)

	w := g.do(t, http.MethodPatch, "/api/session/profile", `{"name":"Bo","phone":"555"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	g.login(t, "user")
	w = g.do(t, http.MethodPatch, "/api/session/profile", `{"name":"Bo","phone":"555"}`)

	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody[domain.User](t, w)
	assert.Equal(t, "Bo", user.Name)
	assert.Equal(t, "555", user.Phone)
	assert.Equal(t, "ann@example.com", user.Email)
}
