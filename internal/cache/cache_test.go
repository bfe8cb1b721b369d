package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/empresahub/console/internal/cache"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rc.Close()) })

	return rc
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	assert.NoError(t, rc.Ping(context.Background()))
}

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "k", []byte("v"), time.Minute))

	val, found, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestGet_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	_, found, err := rc.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestModuleFlags_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	tenantID := uuid.New()

	now := time.Now().UTC().Truncate(time.Second)
	flags := []*models.ModuleFlag{
		{ID: uuid.New(), TenantID: tenantID, ModuleID: "core", Enabled: true, EnabledAt: &now, UpdatedAt: now},
		{ID: uuid.New(), TenantID: tenantID, ModuleID: "people", Enabled: false, UpdatedAt: now},
	}

	require.NoError(t, rc.SetModuleFlags(ctx, tenantID, flags, time.Minute))

	got, found, err := rc.GetModuleFlags(ctx, tenantID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 2)
	assert.Equal(t, "core", got[0].ModuleID)
	assert.True(t, got[0].Enabled)
	assert.Nil(t, got[1].EnabledAt)
}

func TestModuleFlags_InvalidateRemovesSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, rc.SetModuleFlags(ctx, tenantID, []*models.ModuleFlag{
		{ID: uuid.New(), TenantID: tenantID, ModuleID: "core", Enabled: true},
	}, time.Minute))

	require.NoError(t, rc.InvalidateModuleFlags(ctx, tenantID))

	_, found, err := rc.GetModuleFlags(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestModuleFlags_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, rc.SetModuleFlags(ctx, tenantID, []*models.ModuleFlag{
		{ID: uuid.New(), TenantID: tenantID, ModuleID: "core", Enabled: true},
	}, time.Second))

	time.Sleep(1500 * time.Millisecond)

	_, found, err := rc.GetModuleFlags(ctx, tenantID)
	require.NoError(t, err)
	assert.False(t, found, "snapshot must not outlive its staleness bound")
}

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	n, err := rc.IncrWithExpiry(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = rc.IncrWithExpiry(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
