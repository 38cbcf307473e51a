package transport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/middleware"
	"monocart/internal/session"
	"monocart/internal/store"
)

// SessionResponse is the session state plus where the user should land
type SessionResponse struct {
	session.Snapshot
	LandingRoute string `json:"landingRoute"`
}

// SessionHandler handles login, registration and profile requests
type SessionHandler struct {
	session *session.Session
	store   *store.Store
	logger  *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sess *session.Session, st *store.Store, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session: sess,
		store:   st,
		logger:  logger,
	}
}

// RegisterRoutes registers all session routes
func (h *SessionHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Patch("/profile", h.UpdateProfile)
		})
	})
}

func (h *SessionHandler) snapshot() SessionResponse {
	return SessionResponse{
		Snapshot:     h.session.Snapshot(),
		LandingRoute: h.session.LandingRoute(),
	}
}

// GetSession returns the current session state
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.snapshot())
}

// Login authenticates against the API and persists the session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.Credentials
	if !decode(w, r, &req, h.logger) {
		return
	}

	if err := h.session.Login(r.Context(), req); err != nil {
		h.logger.Debug("Login failed", zap.Error(err))

		// A rejected login is not an expired session: no redirect, the login message instead
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			middleware.RespondWithError(w, apiErr.Status, h.session.Error(session.OpLogin))
			return
		}

		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	// data of a previous user must not leak into this session
	h.store.ClearUserData()

	middleware.RespondWithJSON(w, http.StatusOK, h.snapshot())
}

// Register creates an account. The user still has to log in afterwards.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req session.RegisterInput
	if !decode(w, r, &req, h.logger) {
		return
	}

	if err := h.session.Register(r.Context(), req); err != nil {
		h.logger.Debug("Registration failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, messageResponse{
		Message:    "Registration successful, please log in",
		RedirectTo: session.RouteLogin,
	})
}

// Logout clears the session and every user-owned slice
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.session.Logout(r.Context())
	h.store.ClearUserData()
	if err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, messageResponse{
		Message:    "logged out successfully",
		RedirectTo: session.RouteLogin,
	})
}

// UpdateProfile edits the signed-in user's name and phone
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req session.ProfileUpdate
	if !decode(w, r, &req, h.logger) {
		return
	}

	if err := h.session.UpdateProfile(r.Context(), req); err != nil {
		h.logger.Debug("Profile update failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.session.User())
}
