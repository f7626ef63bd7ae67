/*
Package config loads server configuration from a TOML file with
command-line flag overrides.

PURPOSE:
  The tenant root identifies the deployment's collection namespace. Its
  absence is a FATAL configuration error for all sync operations - the
  engine refuses to guess a namespace and write into it.

EXAMPLE (ledger.toml):

  tenant_root = "artifacts/financial-ledger"
  principal   = "demo-user"
  port        = 8080
  db_path     = "ledger.db"
*/
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/warp/ledger-engine/ledger"
)

// Config is the server configuration.
type Config struct {
	TenantRoot string `toml:"tenant_root"`
	Principal  string `toml:"principal"`
	Port       int    `toml:"port"`
	DBPath     string `toml:"db_path"`
}

// Default returns the configuration baseline. TenantRoot has no default on
// purpose.
func Default() Config {
	return Config{
		Port:   8080,
		DBPath: "ledger.db",
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults; a named-but-missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.TenantRoot == "" {
		return fmt.Errorf("%w: set tenant_root in the config file or pass -tenant", ledger.ErrMissingTenantRoot)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
