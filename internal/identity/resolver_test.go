package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/empresahub/console/internal/identity"
	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type principalStore struct {
	store.Store

	memberships []*models.Membership
	err         error
}

func (s *principalStore) ListMembershipsByPrincipal(_ context.Context, principalID string) ([]*models.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.Membership
	for _, m := range s.memberships {
		if m.PrincipalID == principalID {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestResolveContext_DefaultTenantIsOldestMembership(t *testing.T) {
	oldTenant := uuid.New()
	newTenant := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	// Store returns rows already ordered by creation time ascending.
	s := &principalStore{memberships: []*models.Membership{
		{ID: uuid.New(), TenantID: oldTenant, PrincipalID: "p1", Role: models.RoleAdmin, Active: true, TenantName: "old", CreatedAt: base},
		{ID: uuid.New(), TenantID: newTenant, PrincipalID: "p1", Role: models.RoleMember, Active: true, TenantName: "new", CreatedAt: base.Add(time.Minute)},
	}}

	resolved, err := identity.NewResolver(s).ResolveContext(context.Background(),
		models.Principal{ID: "p1", Email: "p1@example.com"})
	require.NoError(t, err)

	require.Len(t, resolved.Memberships, 2)
	require.NotNil(t, resolved.DefaultTenantID)
	assert.Equal(t, oldTenant, *resolved.DefaultTenantID)
	assert.Equal(t, "old", resolved.Memberships[0].TenantName)
	assert.Equal(t, "p1@example.com", resolved.Principal.Email)
}

func TestResolveContext_ZeroMembershipsIsNotAnError(t *testing.T) {
	s := &principalStore{}

	resolved, err := identity.NewResolver(s).ResolveContext(context.Background(),
		models.Principal{ID: "p1"})
	require.NoError(t, err)

	assert.Empty(t, resolved.Memberships)
	assert.Nil(t, resolved.DefaultTenantID)
}

func TestResolveContext_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	s := &principalStore{err: boom}

	_, err := identity.NewResolver(s).ResolveContext(context.Background(),
		models.Principal{ID: "p1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
