package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/audit"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

// AuditLister defines the interface the audit handler depends on.
type AuditLister interface {
	List(ctx context.Context, tenantID uuid.UUID, limit int, cursor string) ([]*models.AuditEvent, string, error)
}

// NewListAuditHandler returns an http.HandlerFunc for
// GET /api/v1/tenants/{tenantID}/audit. Any active member may read the trail.
func NewListAuditHandler(gate Gate, lister AuditLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}
		tenantID, ok := tenantIDParam(w, r)
		if !ok {
			return
		}

		if _, err := gate.AssertActiveMember(r.Context(), principal.ID, tenantID); err != nil {
			writeGateError(w, err)
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be a positive integer", nil)
				return
			}
			limit = n
		}
		cursor := r.URL.Query().Get("cursor")

		events, next, err := lister.List(r.Context(), tenantID, limit, cursor)
		if err != nil {
			if errors.Is(err, audit.ErrBadCursor) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"cursor is malformed", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to list audit events", nil)
			return
		}

		if events == nil {
			events = []*models.AuditEvent{}
		}
		response.Collection(w, events, response.CursorMeta{Limit: limit, NextCursor: next})
	}
}
