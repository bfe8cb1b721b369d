// Package identity resolves a verified principal into its session context:
// the tenants it belongs to and the tenant a fresh session should open on.
// Credential verification happens upstream; this package trusts the principal
// id it is handed.
package identity

import (
	"context"
	"fmt"

	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

// Context is the resolved session context for one principal.
type Context struct {
	Principal       models.Principal     `json:"principal"`
	Memberships     []*models.Membership `json:"memberships"`
	DefaultTenantID *uuid.UUID           `json:"default_tenant_id,omitempty"`
}

// Resolver computes session contexts from membership state.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// ResolveContext returns the principal's active memberships, oldest first,
// and the default tenant (the first membership's tenant). A principal with no
// memberships resolves to an empty context, not an error; only an
// infrastructure failure errors.
func (r *Resolver) ResolveContext(ctx context.Context, principal models.Principal) (*Context, error) {
	memberships, err := r.store.ListMembershipsByPrincipal(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve principal %s: %w", principal.ID, err)
	}

	resolved := &Context{
		Principal:   principal,
		Memberships: memberships,
	}
	if len(memberships) > 0 {
		id := memberships[0].TenantID
		resolved.DefaultTenantID = &id
	}
	return resolved, nil
}
