package handler

import (
	"context"
	"net/http"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/identity"
	"github.com/empresahub/console/pkg/models"
)

// ContextResolver defines the interface the context handler depends on.
type ContextResolver interface {
	ResolveContext(ctx context.Context, principal models.Principal) (*identity.Context, error)
}

// NewContextHandler returns an http.HandlerFunc for GET /api/v1/context.
// An empty membership list is a valid response, not an error: the client
// renders a "no organizations" state from it.
func NewContextHandler(resolver ContextResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}

		resolved, err := resolver.ResolveContext(r.Context(), principal)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to resolve session context", nil)
			return
		}

		response.JSON(w, resolved)
	}
}
