package authz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/empresahub/console/internal/authz"
	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type membershipStore struct {
	store.Store

	memberships map[string]*models.Membership // keyed by tenantID|principalID
	err         error
}

func (s *membershipStore) GetMembership(_ context.Context, tenantID uuid.UUID, principalID string) (*models.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.memberships[tenantID.String()+"|"+principalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m, nil
}

func newMembershipStore(ms ...*models.Membership) *membershipStore {
	s := &membershipStore{memberships: map[string]*models.Membership{}}
	for _, m := range ms {
		s.memberships[m.TenantID.String()+"|"+m.PrincipalID] = m
	}
	return s
}

func membership(tenantID uuid.UUID, principalID string, role models.Role, active bool) *models.Membership {
	now := time.Now().UTC()
	return &models.Membership{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		Role:        role,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestAssertActiveMember_Active(t *testing.T) {
	tenantID := uuid.New()
	gate := authz.NewGate(newMembershipStore(
		membership(tenantID, "p1", models.RoleMember, true),
	))

	m, err := gate.AssertActiveMember(context.Background(), "p1", tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)
}

func TestAssertActiveMember_NoMembership(t *testing.T) {
	gate := authz.NewGate(newMembershipStore())

	_, err := gate.AssertActiveMember(context.Background(), "p1", uuid.New())
	assert.ErrorIs(t, err, authz.ErrNoMembership)
}

func TestAssertActiveMember_Inactive(t *testing.T) {
	tenantID := uuid.New()
	gate := authz.NewGate(newMembershipStore(
		membership(tenantID, "p1", models.RoleMember, false),
	))

	_, err := gate.AssertActiveMember(context.Background(), "p1", tenantID)
	assert.ErrorIs(t, err, authz.ErrNoMembership)
}

func TestAssertAdmin_Admin(t *testing.T) {
	tenantID := uuid.New()
	gate := authz.NewGate(newMembershipStore(
		membership(tenantID, "p1", models.RoleAdmin, true),
	))

	m, err := gate.AssertAdmin(context.Background(), "p1", tenantID)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin())
}

func TestAssertAdmin_NonAdmin(t *testing.T) {
	tenantID := uuid.New()
	gate := authz.NewGate(newMembershipStore(
		membership(tenantID, "p1", models.RoleMember, true),
	))

	_, err := gate.AssertAdmin(context.Background(), "p1", tenantID)
	assert.ErrorIs(t, err, authz.ErrNotAdmin)
}

func TestAssertAdmin_InactiveAdminDenied(t *testing.T) {
	tenantID := uuid.New()
	gate := authz.NewGate(newMembershipStore(
		membership(tenantID, "p1", models.RoleAdmin, false),
	))

	// A deactivated membership denies even if the stored role is admin, and
	// the denial does not leak that a role was ever held.
	_, err := gate.AssertAdmin(context.Background(), "p1", tenantID)
	assert.ErrorIs(t, err, authz.ErrNoMembership)
	assert.NotErrorIs(t, err, authz.ErrNotAdmin)
}

func TestGate_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	gate := authz.NewGate(&membershipStore{err: boom})

	_, err := gate.AssertActiveMember(context.Background(), "p1", uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, authz.ErrNoMembership)
}
