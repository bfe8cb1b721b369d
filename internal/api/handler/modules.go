package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/modules"
	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ModuleService defines the interface the module handlers depend on.
type ModuleService interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error)
	Toggle(ctx context.Context, tenantID uuid.UUID, moduleID catalog.ModuleID, enabled bool, actor modules.Actor) (*modules.ToggleResult, error)
}

// NewListModulesHandler returns an http.HandlerFunc for
// GET /api/v1/tenants/{tenantID}/modules. Any active member may read.
func NewListModulesHandler(gate Gate, svc ModuleService) http.HandlerFunc {
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

		flags, err := svc.List(r.Context(), tenantID)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to list module flags", nil)
			return
		}

		response.JSON(w, flags)
	}
}

type toggleResponse struct {
	Flag          *models.ModuleFlag `json:"flag"`
	AuditRecorded bool               `json:"audit_recorded"`
}

// NewToggleModuleHandler returns an http.HandlerFunc for
// PUT /api/v1/tenants/{tenantID}/modules/{moduleID}. Admin only.
func NewToggleModuleHandler(gate Gate, svc ModuleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}
		tenantID, ok := tenantIDParam(w, r)
		if !ok {
			return
		}
		moduleID := catalog.ModuleID(chi.URLParam(r, "moduleID"))

		membership, err := gate.AssertAdmin(r.Context(), principal.ID, tenantID)
		if err != nil {
			writeGateError(w, err)
			return
		}

		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Enabled == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "enabled is required", nil)
			return
		}

		result, err := svc.Toggle(r.Context(), tenantID, moduleID, *req.Enabled, modules.Actor{
			PrincipalID:  principal.ID,
			MembershipID: &membership.ID,
		})
		if err != nil {
			switch {
			case errors.Is(err, modules.ErrModuleUnknown):
				response.Error(w, http.StatusNotFound, "MODULE_UNKNOWN",
					"No such module in the catalog", nil)
			case errors.Is(err, modules.ErrModuleNotImplemented):
				response.Error(w, http.StatusUnprocessableEntity, "MODULE_NOT_IMPLEMENTED",
					"Module is not implemented yet and cannot be enabled", nil)
			case errors.Is(err, modules.ErrMandatoryModule):
				response.Error(w, http.StatusUnprocessableEntity, "MANDATORY_MODULE",
					"The mandatory module cannot be disabled", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Failed to update module flag", nil)
			}
			return
		}

		response.JSON(w, toggleResponse{
			Flag:          result.Flag,
			AuditRecorded: result.AuditRecorded,
		})
	}
}
