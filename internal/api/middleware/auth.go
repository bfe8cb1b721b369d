package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const tokenPrefixLen = 8

// Auth verifies bearer access tokens and attaches the resulting principal to
// the request context. This is the trust boundary: everything downstream
// treats the principal id as verified, and nothing downstream may derive
// authorization from anything else the caller sent.
type Auth struct {
	store store.Store
}

// NewAuth creates a new Auth middleware.
func NewAuth(s store.Store) *Auth {
	return &Auth{store: s}
}

// Authenticate validates the Bearer token, resolves it to a principal, and
// sets the principal and token prefix in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := extractBearerToken(r)
		if rawToken == "" {
			response.Error(w, http.StatusUnauthorized,
				"AUTHENTICATION_MISSING", "Missing or invalid Authorization header", nil)
			return
		}

		if len(rawToken) < tokenPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"AUTHENTICATION_MISSING", "Invalid access token format", nil)
			return
		}

		prefix := rawToken[:tokenPrefixLen]

		tokens, err := a.store.GetAccessTokensByPrefix(r.Context(), prefix)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to validate access token", nil)
			return
		}

		// Find matching token by bcrypt comparison
		var matched bool
		for _, token := range tokens {
			if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(rawToken)) == nil {
				ctx := r.Context()
				ctx = SetPrincipal(ctx, token.Principal())
				ctx = setTokenPrefix(ctx, prefix)
				r = r.WithContext(ctx)
				matched = true

				// Update last_used_at async
				go a.store.UpdateAccessTokenLastUsed(context.Background(), token.ID)
				break
			}
		}

		if !matched {
			response.Error(w, http.StatusUnauthorized,
				"AUTHENTICATION_MISSING", "Invalid access token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
