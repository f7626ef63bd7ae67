package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/config"
	"github.com/warp/ledger-engine/ledger"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ledger.db", cfg.DBPath)
	assert.Empty(t, cfg.TenantRoot)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
tenant_root = "apps/shop-demo"
principal   = "owner-1"
port        = 9090
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "apps/shop-demo", cfg.TenantRoot)
	assert.Equal(t, "owner-1", cfg.Principal)
	assert.Equal(t, 9090, cfg.Port)
	// Unset keys keep their defaults
	assert.Equal(t, "ledger.db", cfg.DBPath)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate_RequiresTenantRoot(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ledger.ErrMissingTenantRoot)

	cfg.TenantRoot = "apps/shop-demo"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_PortRange(t *testing.T) {
	cfg := config.Default()
	cfg.TenantRoot = "apps/shop-demo"

	cfg.Port = 0
	assert.Error(t, cfg.Validate())
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
	cfg.Port = 8080
	assert.NoError(t, cfg.Validate())
}
