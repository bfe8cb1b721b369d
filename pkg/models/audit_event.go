package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names. Every write path records exactly one of these; the set
// is closed so dashboards and alerts can enumerate it.
const (
	ActionModuleEnabled     = "module.enabled"
	ActionModuleDisabled    = "module.disabled"
	ActionMemberProvisioned = "member.provisioned"
	ActionMemberDeactivated = "member.deactivated"
	ActionSettingUpdated    = "setting.updated"
)

// AuditEvent is an immutable record of a privileged action: who did what, to
// which tenant, against which target, with what context. Rows are append-only;
// nothing in the system updates or deletes them.
type AuditEvent struct {
	ID                uuid.UUID      `db:"id"                  json:"id"`
	TenantID          uuid.UUID      `db:"tenant_id"           json:"tenant_id"`
	ActorPrincipalID  string         `db:"actor_principal_id"  json:"actor_principal_id"`
	ActorMembershipID *uuid.UUID     `db:"actor_membership_id" json:"actor_membership_id,omitempty"`
	Action            string         `db:"action"              json:"action"`
	TargetKind        string         `db:"target_kind"         json:"target_kind,omitempty"`
	TargetID          string         `db:"target_id"           json:"target_id,omitempty"`
	Payload           map[string]any `db:"payload"             json:"payload,omitempty"`
	CreatedAt         time.Time      `db:"created_at"          json:"created_at"`
}
