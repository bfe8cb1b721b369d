package client_test

import (
	"context"
	"testing"

	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/client"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const safeRoute = "/dashboard"

func newGuardFixture(t *testing.T) (*fakeClient, *client.ModuleCache, *client.Guard, uuid.UUID) {
	t.Helper()
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	guard := client.NewGuard(cache, safeRoute)
	guard.RegisterRoute("/dashboard", catalog.ModuleCore)
	guard.RegisterRoute("/docs", catalog.ModuleDocs)
	guard.RegisterRoute("/people", catalog.ModulePeople)
	guard.RegisterRoute("/projects", catalog.ModuleProjects)

	return fc, cache, guard, tenantID
}

func TestGuard_AllowsEnabledModule(t *testing.T) {
	_, cache, guard, tenantID := newGuardFixture(t)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	decision := guard.Check("/docs/contracts/42")
	assert.True(t, decision.Allowed)
	assert.Equal(t, catalog.ModuleDocs, decision.Module)
}

func TestGuard_DeniesDisabledModule(t *testing.T) {
	_, cache, guard, tenantID := newGuardFixture(t)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	decision := guard.Check("/people/employees")
	assert.False(t, decision.Allowed)
	assert.Equal(t, safeRoute, decision.Redirect)
	assert.Equal(t, client.DenyModuleDisabled, decision.Reason)
}

func TestGuard_MandatoryAlwaysAllowed(t *testing.T) {
	// No snapshot loaded at all: the safe route must still work.
	_, _, guard, _ := newGuardFixture(t)

	decision := guard.Check("/dashboard")
	assert.True(t, decision.Allowed)
}

func TestGuard_DeniesUnimplementedModule(t *testing.T) {
	_, cache, guard, tenantID := newGuardFixture(t)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	decision := guard.Check("/projects/board")
	assert.False(t, decision.Allowed)
	assert.Equal(t, client.DenyNotImplemented, decision.Reason)
}

func TestGuard_DeniesUnmappedRoute(t *testing.T) {
	_, cache, guard, tenantID := newGuardFixture(t)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	decision := guard.Check("/warehouse/bins")
	assert.False(t, decision.Allowed)
	assert.Equal(t, safeRoute, decision.Redirect)
	assert.Equal(t, client.DenyUnmappedRoute, decision.Reason)
}

func TestGuard_DeniesWithoutSnapshot(t *testing.T) {
	_, _, guard, _ := newGuardFixture(t)

	decision := guard.Check("/docs")
	assert.False(t, decision.Allowed)
	assert.Equal(t, client.DenyNoSnapshotLoaded, decision.Reason)
}

// A route allowed on one navigation may be denied on the next: another admin
// can disable the module between the two. The guard must consult current
// state every time.
func TestGuard_ReevaluatesPerNavigation(t *testing.T) {
	fc, cache, guard, tenantID := newGuardFixture(t)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	assert.True(t, guard.Check("/docs").Allowed)

	// Cross-tab toggle by another session, observed at the next refresh.
	fc.setFlags(tenantID, map[catalog.ModuleID]bool{
		catalog.ModuleCore:   true,
		catalog.ModuleDocs:   false,
		catalog.ModulePeople: false,
	})
	_, err = cache.Refresh(context.Background())
	require.NoError(t, err)

	decision := guard.Check("/docs")
	assert.False(t, decision.Allowed)
	assert.Equal(t, client.DenyModuleDisabled, decision.Reason)
}

func TestGuard_LongestPrefixWins(t *testing.T) {
	_, cache, guard, tenantID := newGuardFixture(t)
	guard.RegisterRoute("/docs/admin", catalog.ModulePeople)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	module, ok := guard.Resolve("/docs/admin/retention")
	require.True(t, ok)
	assert.Equal(t, catalog.ModulePeople, module)

	module, ok = guard.Resolve("/docs/contracts")
	require.True(t, ok)
	assert.Equal(t, catalog.ModuleDocs, module)
}
