package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessToken is a bearer credential bound to a principal. Raw tokens are
// shown once at issuance; only the bcrypt hash is stored, with the plaintext
// prefix kept as a lookup index.
type AccessToken struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	PrincipalID string     `db:"principal_id" json:"principal_id"`
	Email       string     `db:"email"        json:"email,omitempty"`
	Name        string     `db:"name"         json:"name"`
	TokenHash   string     `db:"token_hash"   json:"-"`
	TokenPrefix string     `db:"token_prefix" json:"token_prefix"`
	LastUsedAt  *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	RevokedAt   *time.Time `db:"revoked_at"   json:"-"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// Principal returns the principal this token authenticates as.
func (t *AccessToken) Principal() Principal {
	return Principal{ID: t.PrincipalID, Email: t.Email}
}
