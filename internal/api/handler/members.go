package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/audit"
	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MemberStore is the membership persistence the member handlers depend on.
type MemberStore interface {
	CreateMembership(ctx context.Context, m *models.Membership) error
	DeactivateMembership(ctx context.Context, tenantID, membershipID uuid.UUID) error
}

// AuditRecorder appends events to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, params audit.RecordParams) (*models.AuditEvent, error)
}

type membershipResponse struct {
	Membership    *models.Membership `json:"membership"`
	AuditRecorded bool               `json:"audit_recorded"`
}

// NewProvisionMemberHandler returns an http.HandlerFunc for
// POST /api/v1/tenants/{tenantID}/members. Admin only.
func NewProvisionMemberHandler(gate Gate, members MemberStore, trail AuditRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}
		tenantID, ok := tenantIDParam(w, r)
		if !ok {
			return
		}

		actor, err := gate.AssertAdmin(r.Context(), principal.ID, tenantID)
		if err != nil {
			writeGateError(w, err)
			return
		}

		var req struct {
			PrincipalID string `json:"principal_id"`
			Role        string `json:"role"`
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.PrincipalID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "principal_id is required", nil)
			return
		}
		role := models.Role(req.Role)
		if role != models.RoleAdmin && role != models.RoleMember {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"role must be admin or member", nil)
			return
		}

		now := time.Now().UTC()
		m := &models.Membership{
			ID:          uuid.New(),
			TenantID:    tenantID,
			PrincipalID: req.PrincipalID,
			Role:        role,
			Active:      true,
			DisplayName: req.DisplayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := members.CreateMembership(r.Context(), m); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "MEMBERSHIP_EXISTS",
					"Principal already has a membership in this tenant", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to create membership", nil)
			return
		}

		_, auditErr := trail.Record(r.Context(), audit.RecordParams{
			TenantID:          tenantID,
			ActorPrincipalID:  principal.ID,
			ActorMembershipID: &actor.ID,
			Action:            models.ActionMemberProvisioned,
			TargetKind:        "membership",
			TargetID:          m.ID.String(),
			Payload:           map[string]any{"principal_id": req.PrincipalID, "role": req.Role},
		})

		response.Created(w, membershipResponse{Membership: m, AuditRecorded: auditErr == nil})
	}
}

// NewDeactivateMemberHandler returns an http.HandlerFunc for
// DELETE /api/v1/tenants/{tenantID}/members/{membershipID}. Admin only.
// The membership row survives deactivation so the audit trail keeps its actor.
func NewDeactivateMemberHandler(gate Gate, members MemberStore, trail AuditRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}
		tenantID, ok := tenantIDParam(w, r)
		if !ok {
			return
		}
		membershipID, err := uuid.Parse(chi.URLParam(r, "membershipID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"membershipID must be a valid UUID", nil)
			return
		}

		actor, err := gate.AssertAdmin(r.Context(), principal.ID, tenantID)
		if err != nil {
			writeGateError(w, err)
			return
		}

		if err := members.DeactivateMembership(r.Context(), tenantID, membershipID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"No active membership with that id", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to deactivate membership", nil)
			return
		}

		_, auditErr := trail.Record(r.Context(), audit.RecordParams{
			TenantID:          tenantID,
			ActorPrincipalID:  principal.ID,
			ActorMembershipID: &actor.ID,
			Action:            models.ActionMemberDeactivated,
			TargetKind:        "membership",
			TargetID:          membershipID.String(),
		})

		response.JSON(w, map[string]any{"audit_recorded": auditErr == nil})
	}
}
