package middleware

import (
	"context"
	"net/http"
	"strings"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/auth"
	"wholesale-backend/pkg/utils"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const UserNameKey contextKey = "user_name"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate validates the bearer token and puts the operator on the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.Error(w, r, apperr.Unauthorized("authorization header required"))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(w, r, apperr.Unauthorized("invalid authorization format"))
			return
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			utils.Error(w, r, apperr.Unauthorized("invalid or expired token"))
			return
		}

		ctx := WithUser(r.Context(), claims.UserID, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUser stores the operator identity on ctx
func WithUser(ctx context.Context, userID int, name string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserNameKey, name)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UserNameKey).(string)
	return name, ok
}
