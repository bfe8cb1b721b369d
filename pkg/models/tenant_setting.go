package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantSettings is the per-tenant configuration document. Values is a flat
// key/value map stored as jsonb; the subsystem does not interpret it.
type TenantSettings struct {
	TenantID  uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Values    map[string]any `db:"data"      json:"values"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
