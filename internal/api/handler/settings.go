package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/audit"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

// SettingsStore is the settings persistence the settings handlers depend on.
type SettingsStore interface {
	GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error)
	UpsertTenantSettings(ctx context.Context, tenantID uuid.UUID, values map[string]any) (*models.TenantSettings, error)
}

// NewGetSettingsHandler returns an http.HandlerFunc for
// GET /api/v1/tenants/{tenantID}/settings. Any active member may read.
func NewGetSettingsHandler(gate Gate, settings SettingsStore) http.HandlerFunc {
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

		doc, err := settings.GetTenantSettings(r.Context(), tenantID)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to load settings", nil)
			return
		}

		response.JSON(w, doc)
	}
}

type settingsResponse struct {
	Settings      *models.TenantSettings `json:"settings"`
	AuditRecorded bool                   `json:"audit_recorded"`
}

// NewUpdateSettingsHandler returns an http.HandlerFunc for
// PUT /api/v1/tenants/{tenantID}/settings. Admin only; the write replaces the
// whole document.
func NewUpdateSettingsHandler(gate Gate, settings SettingsStore, trail AuditRecorder) http.HandlerFunc {
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
			Values map[string]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Values == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "values is required", nil)
			return
		}

		doc, err := settings.UpsertTenantSettings(r.Context(), tenantID, req.Values)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to save settings", nil)
			return
		}

		_, auditErr := trail.Record(r.Context(), audit.RecordParams{
			TenantID:          tenantID,
			ActorPrincipalID:  principal.ID,
			ActorMembershipID: &actor.ID,
			Action:            models.ActionSettingUpdated,
			TargetKind:        "settings",
			TargetID:          tenantID.String(),
			Payload:           map[string]any{"keys": settingKeys(req.Values)},
		})

		response.JSON(w, settingsResponse{Settings: doc, AuditRecorded: auditErr == nil})
	}
}

// settingKeys lists which keys changed without copying values into the trail;
// settings may hold things that don't belong in an audit payload.
func settingKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	return keys
}
