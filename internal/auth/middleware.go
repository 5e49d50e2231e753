package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "auth_user_id"

// Middleware verifies the Authorization bearer credential and stores the
// authenticated user ID in the request context. Requests without a valid
// credential are rejected with 401.
func (s *Service) Middleware(reject func(w http.ResponseWriter, status int, message string)) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				reject(w, http.StatusUnauthorized, "authorization header is required")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				reject(w, http.StatusUnauthorized, "invalid token format")
				return
			}
			user, err := s.Verify(r.Context(), token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user.ID)
			next(w, r.WithContext(ctx))
		}
	}
}

// UserID extracts the authenticated user ID placed by Middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userContextKey).(string)
	return id, ok && id != ""
}
