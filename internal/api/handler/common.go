// Package handler contains the HTTP handlers. Each handler declares the
// narrow interface it depends on; wiring happens in cmd/server.
package handler

import (
	"context"
	"errors"
	"net/http"

	mw "github.com/empresahub/console/internal/api/middleware"
	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/authz"
	"github.com/empresahub/console/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Gate is the authorization check every tenant-scoped handler runs first.
type Gate interface {
	AssertActiveMember(ctx context.Context, principalID string, tenantID uuid.UUID) (*models.Membership, error)
	AssertAdmin(ctx context.Context, principalID string, tenantID uuid.UUID) (*models.Membership, error)
}

// principalFrom extracts the verified principal, writing 401 if auth never ran.
func principalFrom(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := mw.GetPrincipal(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized,
			"AUTHENTICATION_MISSING", "No verified principal on request", nil)
		return models.Principal{}, false
	}
	return p, true
}

// tenantIDParam parses the {tenantID} URL parameter, writing 400 on garbage.
func tenantIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", "tenantID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// writeGateError translates gate denials into their specific error codes.
// Denials are never coerced into a generic failure: clients branch on the
// reason.
func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrNoMembership):
		response.Error(w, http.StatusForbidden,
			"NO_MEMBERSHIP", "No active membership in this tenant", nil)
	case errors.Is(err, authz.ErrNotAdmin):
		response.Error(w, http.StatusForbidden,
			"NOT_ADMIN", "Admin role required", nil)
	default:
		response.Error(w, http.StatusServiceUnavailable,
			"STORAGE_UNAVAILABLE", "Failed to evaluate authorization", nil)
	}
}
