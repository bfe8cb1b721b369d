package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/client"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves flag state from memory and counts calls, so tests can
// assert which operations hit the network.
type fakeClient struct {
	mu          sync.Mutex
	flags       map[uuid.UUID]map[catalog.ModuleID]bool
	listErr     error
	toggleErr   error
	listCalls   int
	toggleCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{flags: make(map[uuid.UUID]map[catalog.ModuleID]bool)}
}

func (f *fakeClient) setFlags(tenantID uuid.UUID, enabled map[catalog.ModuleID]bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[tenantID] = enabled
}

func (f *fakeClient) ResolveContext(_ context.Context) (*client.SessionContext, error) {
	return &client.SessionContext{}, nil
}

func (f *fakeClient) ListModules(_ context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.ModuleFlag
	for id, enabled := range f.flags[tenantID] {
		out = append(out, &models.ModuleFlag{TenantID: tenantID, ModuleID: string(id), Enabled: enabled})
	}
	return out, nil
}

func (f *fakeClient) ToggleModule(_ context.Context, tenantID uuid.UUID, moduleID catalog.ModuleID, enabled bool) (*client.ToggleOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls++
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	f.flags[tenantID][moduleID] = enabled
	return &client.ToggleOutcome{
		Flag:          &models.ModuleFlag{TenantID: tenantID, ModuleID: string(moduleID), Enabled: enabled},
		AuditRecorded: true,
	}, nil
}

func (f *fakeClient) ListAudit(_ context.Context, _ uuid.UUID, _ int, _ string) ([]*models.AuditEvent, string, error) {
	return nil, "", nil
}

var _ client.Client = (*fakeClient)(nil)

func defaultEnabledSet() map[catalog.ModuleID]bool {
	return map[catalog.ModuleID]bool{
		catalog.ModuleCore:   true,
		catalog.ModuleDocs:   true,
		catalog.ModulePeople: false,
	}
}

func TestSwitchTenant_FetchesFreshState(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	snap, changed, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, changed, "first fetch always counts as changed")
	assert.True(t, snap.Enabled[catalog.ModuleDocs])
	assert.False(t, snap.Enabled[catalog.ModulePeople])
	assert.Equal(t, 1, fc.listCalls)
}

func TestSwitchTenant_ProvisionalThenReconcile(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)

	_, ok := cache.Provisional(tenantID)
	assert.False(t, ok, "nothing cached before the first switch")

	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	// Another session enables people behind our back.
	fc.setFlags(tenantID, map[catalog.ModuleID]bool{
		catalog.ModuleCore:   true,
		catalog.ModuleDocs:   true,
		catalog.ModulePeople: true,
	})

	// Coming back to the tenant: the provisional snapshot still shows the old
	// state, and the switch reports that it had to be replaced.
	provisional, ok := cache.Provisional(tenantID)
	require.True(t, ok)
	assert.False(t, provisional.Enabled[catalog.ModulePeople])

	fresh, changed, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, fresh.Enabled[catalog.ModulePeople])
}

func TestSwitchTenant_UnchangedStateReportsNoChange(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	_, changed, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)
	assert.False(t, changed, "identical enabled set needs no re-render")
}

func TestSwitchTenant_FetchFailureKeepsOldTenant(t *testing.T) {
	fc := newFakeClient()
	first := uuid.New()
	second := uuid.New()
	fc.setFlags(first, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	_, _, err := cache.SwitchTenant(context.Background(), first)
	require.NoError(t, err)

	fc.mu.Lock()
	fc.listErr = client.ErrUnreachable
	fc.mu.Unlock()

	_, _, err = cache.SwitchTenant(context.Background(), second)
	require.Error(t, err)

	snap, ok := cache.ActiveSnapshot()
	require.True(t, ok, "failed switch must not lose the working tenant")
	assert.Equal(t, first, snap.TenantID)
}

func TestToggle_OptimisticCommit(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	require.NoError(t, cache.Toggle(context.Background(), catalog.ModulePeople, true))
	assert.True(t, cache.Enabled(catalog.ModulePeople))
	assert.Equal(t, 1, fc.toggleCalls)
}

func TestToggle_RollsBackOnServerRejection(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	fc.mu.Lock()
	fc.toggleErr = client.ErrNotAdmin
	fc.mu.Unlock()

	err = cache.Toggle(context.Background(), catalog.ModulePeople, true)
	assert.ErrorIs(t, err, client.ErrNotAdmin, "the server's specific rejection surfaces")
	assert.False(t, cache.Enabled(catalog.ModulePeople), "rolled back to pre-toggle state")
}

func TestToggle_LocalGuardrailsRunBeforeNetwork(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	_, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	err = cache.Toggle(context.Background(), catalog.MandatoryModuleID(), false)
	assert.ErrorIs(t, err, catalog.ErrMandatory)

	err = cache.Toggle(context.Background(), catalog.ModuleProjects, true)
	assert.ErrorIs(t, err, catalog.ErrNotImplemented)

	err = cache.Toggle(context.Background(), "warehouse", true)
	assert.ErrorIs(t, err, catalog.ErrUnknownModule)

	assert.Equal(t, 0, fc.toggleCalls, "guardrail rejections never reach the server")
}

func TestToggle_NoActiveTenant(t *testing.T) {
	cache := client.NewModuleCache(newFakeClient())
	err := cache.Toggle(context.Background(), catalog.ModulePeople, true)
	assert.ErrorIs(t, err, client.ErrNoActiveTenant)
}

func TestEnabled_MandatoryAlwaysTrue(t *testing.T) {
	cache := client.NewModuleCache(newFakeClient())
	assert.True(t, cache.Enabled(catalog.MandatoryModuleID()),
		"mandatory module is allowed even with no snapshot loaded")
	assert.False(t, cache.Enabled(catalog.ModuleDocs))
}

func TestSnapshot_Stale(t *testing.T) {
	snap := client.Snapshot{FetchedAt: time.Now().Add(-time.Minute)}
	assert.True(t, snap.Stale(30*time.Second))
	assert.False(t, snap.Stale(2*time.Minute))
}

func TestSnapshot_CopiesDoNotAliasCache(t *testing.T) {
	fc := newFakeClient()
	tenantID := uuid.New()
	fc.setFlags(tenantID, defaultEnabledSet())

	cache := client.NewModuleCache(fc)
	snap, _, err := cache.SwitchTenant(context.Background(), tenantID)
	require.NoError(t, err)

	snap.Enabled[catalog.ModulePeople] = true
	assert.False(t, cache.Enabled(catalog.ModulePeople))
}
