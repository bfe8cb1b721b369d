package models

import (
	"time"

	"github.com/google/uuid"
)

// ModuleFlag is the per-tenant persisted enablement state for one catalog
// module. Exactly one row exists per (tenant, module id); rows are created by
// the idempotent seed and only ever mutated through the guarded toggle.
//
// EnabledAt records the first activation and is never cleared: disabling and
// re-enabling a module preserves the original timestamp.
type ModuleFlag struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	TenantID  uuid.UUID  `db:"tenant_id"  json:"tenant_id"`
	ModuleID  string     `db:"module_id"  json:"module_id"`
	Enabled   bool       `db:"enabled"    json:"enabled"`
	EnabledAt *time.Time `db:"enabled_at" json:"enabled_at,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
