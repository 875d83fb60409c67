package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/scopeconf/internal/adapter/metrics"
	"github.com/pscheid92/scopeconf/internal/platform/config"
)

const testSchema = `
definitions:
  app.website.name:
    type: string
    required: true
    scoped: true
    default: My Website
  app.website.locale:
    type: select
    options: scopes
    scoped: true
  auth.api.key:
    type: encrypted
scopes:
  - code: en
    name: English
  - code: fr
    name: French
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o600))

	return &config.Config{
		SchemaPath:         schemaPath,
		BcryptCost:         4,
		FileUploadsEnabled: true,
		FileStorageDir:     filepath.Join(dir, "files"),
		FileBaseURL:        "/files",
		CacheKey:           "scopeconf:test",
		SnapshotTTL:        time.Hour,
	}
}

func TestBuild_InMemory(t *testing.T) {
	ctx := context.Background()
	reg := metrics.NewRegistry()

	a, err := Build(ctx, testConfig(t), Options{Registry: reg, Clock: clockwork.NewFakeClock()})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	assert.Nil(t, a.Redis)
	assert.Empty(t, a.HealthChecks)

	require.NoError(t, a.Service.Set(ctx, "app.website.name", "Site EN", "en"))
	v, err := a.Service.Get(ctx, "app.website.name", "en")
	require.NoError(t, err)
	assert.Equal(t, "Site EN", v)

	// the built-in scopes option set backs select fields
	require.NoError(t, a.Service.Set(ctx, "app.website.locale", "fr", ""))
	err = a.Service.Set(ctx, "app.website.locale", "de", "")
	require.Error(t, err)

	// without ENCRYPTION_KEY the value is stored as is
	require.NoError(t, a.Service.SetEncrypted(ctx, "auth.api.key", "token", ""))
	plain, err := a.Service.GetEncrypted(ctx, "auth.api.key", "")
	require.NoError(t, err)
	assert.Equal(t, "token", plain)

	count, err := testutil.GatherAndCount(reg, "scopeconf_config_writes_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestBuild_EncryptionKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.EncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	a, err := Build(ctx, cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Service.SetEncrypted(ctx, "auth.api.key", "token", ""))

	stored, err := a.Service.GetScopeValue(ctx, "auth.api.key", "")
	require.NoError(t, err)
	assert.NotEqual(t, "token", stored)

	plain, err := a.Service.GetEncrypted(ctx, "auth.api.key", "")
	require.NoError(t, err)
	assert.Equal(t, "token", plain)
}

func TestBuild_InvalidSchema(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.SchemaPath, []byte("definitions:\n  bad:\n    type: string\n"), 0o600))

	_, err := Build(context.Background(), cfg, Options{})
	require.Error(t, err)
}

func TestBuild_UnknownOptionSet(t *testing.T) {
	cfg := testConfig(t)
	schema := "definitions:\n  app.theme.mode:\n    type: select\n    options: modes\n"
	require.NoError(t, os.WriteFile(cfg.SchemaPath, []byte(schema), 0o600))

	_, err := Build(context.Background(), cfg, Options{})
	require.Error(t, err)
}

func TestApp_StartAndClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	cfg.OrphanCheckInterval = time.Minute

	a, err := Build(ctx, cfg, Options{Clock: clockwork.NewFakeClock()})
	require.NoError(t, err)

	a.Start(ctx)
	a.Close()
}
