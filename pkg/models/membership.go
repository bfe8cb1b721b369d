package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level a membership grants within a tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership links a principal to a tenant with a role. It is the sole source
// of authorization truth: every privileged operation re-derives its verdict
// from this row. Memberships are deactivated, never deleted, so audit events
// keep a resolvable actor.
type Membership struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	TenantID    uuid.UUID `db:"tenant_id"    json:"tenant_id"`
	PrincipalID string    `db:"principal_id" json:"principal_id"`
	Role        Role      `db:"role"         json:"role"`
	Active      bool      `db:"active"       json:"active"`
	DisplayName string    `db:"display_name" json:"display_name,omitempty"`
	TenantName  string    `db:"-"            json:"tenant_name,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}

// IsAdmin reports whether the membership grants admin rights. An inactive
// membership grants nothing regardless of its stored role.
func (m *Membership) IsAdmin() bool {
	return m.Active && m.Role == RoleAdmin
}
