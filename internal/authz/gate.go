// Package authz is the authorization gate. Every privileged operation funnels
// through AssertActiveMember or AssertAdmin; nothing else in the system may
// grant tenant access. The verdict is re-derived from the membership row on
// every call — there is no caching, so a role downgrade or deactivation takes
// effect on the next request.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

var ErrNoMembership = errors.New("principal has no active membership in tenant")
var ErrNotAdmin = errors.New("principal is not an admin of tenant")

// Gate evaluates membership-based authorization checks.
type Gate struct {
	store store.Store
}

// NewGate creates a Gate backed by the given store.
func NewGate(s store.Store) *Gate {
	return &Gate{store: s}
}

// AssertActiveMember returns the principal's membership in the tenant, or
// ErrNoMembership if it is absent or inactive.
func (g *Gate) AssertActiveMember(ctx context.Context, principalID string, tenantID uuid.UUID) (*models.Membership, error) {
	m, err := g.store.GetMembership(ctx, tenantID, principalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoMembership
	}
	if err != nil {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}
	if !m.Active {
		return nil, ErrNoMembership
	}
	return m, nil
}

// AssertAdmin returns the principal's membership if it is active and carries
// the admin role. An inactive admin membership denies with ErrNoMembership,
// not ErrNotAdmin: a revoked actor learns nothing about their stored role.
func (g *Gate) AssertAdmin(ctx context.Context, principalID string, tenantID uuid.UUID) (*models.Membership, error) {
	m, err := g.AssertActiveMember(ctx, principalID, tenantID)
	if err != nil {
		return nil, err
	}
	if m.Role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return m, nil
}
