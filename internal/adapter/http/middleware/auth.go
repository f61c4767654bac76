package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mver/payflow/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// AccountContextKey is the context key for the authenticated account
	AccountContextKey ContextKey = "account"
)

// Identity carries the authenticated caller through the request
// context.
type Identity struct {
	AccountID int64
	Email     string
}

// AuthMiddleware creates an authentication middleware
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			identity := &Identity{
				AccountID: claims.AccountID,
				Email:     claims.Email,
			}

			ctx := context.WithValue(r.Context(), AccountContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the authenticated caller from context
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(AccountContextKey).(*Identity)
	return identity, ok
}
