package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated organization ("empresa"). Every other entity
// belongs to a tenant. Tenants are created administratively and never deleted.
type Tenant struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
