package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"monocart/internal/domain"
	"monocart/internal/session"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// SessionReader is the view of the session the guards need
type SessionReader interface {
	IsLoggedIn() bool
	User() domain.User
}

// RequireSession rejects requests while the session is anonymous and puts
// the user id and role into the request context
func RequireSession(sess SessionReader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sess.IsLoggedIn() {
				logger.Debug("Anonymous request to protected route", zap.String("path", r.URL.Path))
				respondWithErrorDetails(w, http.StatusUnauthorized, "You must be logged in", map[string]interface{}{
					"redirect": session.RouteLogin,
				})
				return
			}

			user := sess.User()
			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserRoleKey, user.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(domain.Role)
	return role, ok
}
