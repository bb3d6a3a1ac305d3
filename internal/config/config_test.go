package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://italsteeldistribuidora.odoo.com/shop", cfg.Shop.ShopURL())
	assert.Equal(t, 100, cfg.Shop.MaxPages)
	assert.Equal(t, 50, cfg.Shop.MaxForcedProbes)
	assert.Equal(t, 300*time.Millisecond, cfg.Shop.CategoryDelay)
	assert.Equal(t, StrategyScraped, cfg.Hierarchy.Strategy)
	assert.True(t, cfg.Hierarchy.IncludeRootIDs)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 6*time.Hour, cfg.Server.SyncInterval)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromFileWithStaticHierarchy(t *testing.T) {
	path := writeConfig(t, `
shop:
  base_url: https://tienda.example.com/
  category_delay: 1s
hierarchy:
  strategy: static
  static:
    - id: 3
      name: Acero
      slug: acero-3
      children:
        - id: 14
          name: Anillos
          slug: anillos-14
server:
  sync_interval: 30m
`)

	cfg, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://tienda.example.com/shop", cfg.Shop.ShopURL())
	assert.Equal(t, time.Second, cfg.Shop.CategoryDelay)
	assert.Equal(t, 30*time.Minute, cfg.Server.SyncInterval)
	require.Len(t, cfg.Hierarchy.Static, 1)
	assert.Equal(t, "Acero", cfg.Hierarchy.Static[0].Name)
	require.Len(t, cfg.Hierarchy.Static[0].Children, 1)
	assert.Equal(t, 14, cfg.Hierarchy.Static[0].Children[0].ID)
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	t.Setenv("CATALOG_SHOP_BASE_URL", "https://otra.example.com")
	t.Setenv("CATALOG_SERVER_PORT", "9090")

	cfg, err := LoadFrom(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://otra.example.com", cfg.Shop.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadFromMissingExplicitFile(t *testing.T) {
	_, err := LoadFrom(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := LoadFrom(viper.New(), "")
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "MissingBaseURL", mutate: func(c *Config) { c.Shop.BaseURL = " " }, errMsg: "shop.base_url"},
		{name: "UnknownStrategy", mutate: func(c *Config) { c.Hierarchy.Strategy = "guess" }, errMsg: "unknown hierarchy.strategy"},
		{name: "StaticWithoutTable", mutate: func(c *Config) { c.Hierarchy.Strategy = StrategyStatic }, errMsg: "hierarchy.static"},
		{name: "NoPages", mutate: func(c *Config) { c.Shop.MaxPages = 0 }, errMsg: "shop.max_pages"},
		{name: "DatabaseWithoutDSN", mutate: func(c *Config) { c.Database.Enabled = true }, errMsg: "database.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
