package middleware

import (
	"context"
	"net/http"

	"github.com/empresahub/console/pkg/models"
)

type contextKey string

const (
	principalKey   contextKey = "principal"
	tokenPrefixKey contextKey = "token_prefix"
)

// SetPrincipal stores the verified principal in the context. Exported so
// handler tests can simulate an authenticated request.
func SetPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the verified principal, if authentication ran.
func GetPrincipal(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(models.Principal)
	return p, ok
}

func setTokenPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, tokenPrefixKey, prefix)
}

func getTokenPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(tokenPrefixKey).(string)
	return prefix, ok
}
