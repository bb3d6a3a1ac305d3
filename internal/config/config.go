package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Shop      ShopConfig      `mapstructure:"shop"`
	Hierarchy HierarchyConfig `mapstructure:"hierarchy"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

// ShopConfig holds the source storefront and crawl politeness settings
type ShopConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	ShopPath             string        `mapstructure:"shop_path"`
	Timeout              int           `mapstructure:"timeout"`
	MaxRetries           int           `mapstructure:"max_retries"`
	MaxRequestsPerSecond int           `mapstructure:"max_requests_per_second"`
	CategoryDelay        time.Duration `mapstructure:"category_delay"`
	UserAgent            string        `mapstructure:"user_agent"`
	AcceptLanguage       string        `mapstructure:"accept_language"`
	MaxPages             int           `mapstructure:"max_pages"`
	MaxForcedProbes      int           `mapstructure:"max_forced_probes"`
}

// ShopURL is the catalog root used for the connectivity probe and category discovery.
func (c ShopConfig) ShopURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.ShopPath
}

// HierarchyConfig selects how the category tree is produced
type HierarchyConfig struct {
	Strategy       string               `mapstructure:"strategy"`
	IncludeRootIDs bool                 `mapstructure:"include_root_ids"`
	Static         []StaticRootCategory `mapstructure:"static"`
}

// StaticRootCategory is one hand-curated root with its children
type StaticRootCategory struct {
	ID       int                   `mapstructure:"id"`
	Name     string                `mapstructure:"name"`
	Slug     string                `mapstructure:"slug"`
	Children []StaticChildCategory `mapstructure:"children"`
}

// StaticChildCategory is one hand-curated child category
type StaticChildCategory struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Slug string `mapstructure:"slug"`
}

const (
	StrategyScraped = "scraped"
	StrategyStatic  = "static"
)

// StorageConfig holds local snapshot and image locations
type StorageConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	SnapshotFile   string `mapstructure:"snapshot_file"`
	ImagesDir      string `mapstructure:"images_dir"`
	ImageURLPrefix string `mapstructure:"image_url_prefix"`
	RefreshImages  bool   `mapstructure:"refresh_images"`
}

// ServerConfig holds the trigger API and scheduler settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	SyncOnStart  bool          `mapstructure:"sync_on_start"`
}

// DatabaseConfig holds the optional Postgres product mirror
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// RedisConfig holds Redis connection details for the sync lock and event stream
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	Database int           `mapstructure:"database"`
	LockKey  string        `mapstructure:"lock_key"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	Stream   string        `mapstructure:"stream"`
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file with environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom reads configuration into v. An empty path searches for config.yaml in the working directory.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the sync pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Shop.BaseURL) == "" {
		return fmt.Errorf("shop.base_url is required")
	}
	switch c.Hierarchy.Strategy {
	case StrategyScraped:
	case StrategyStatic:
		if len(c.Hierarchy.Static) == 0 {
			return fmt.Errorf("hierarchy.static must list categories when strategy is %q", StrategyStatic)
		}
	default:
		return fmt.Errorf("unknown hierarchy.strategy %q", c.Hierarchy.Strategy)
	}
	if c.Shop.MaxPages <= 0 {
		return fmt.Errorf("shop.max_pages must be positive")
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.enabled is true")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shop.base_url", "https://italsteeldistribuidora.odoo.com")
	v.SetDefault("shop.shop_path", "/shop")
	v.SetDefault("shop.timeout", 30)
	v.SetDefault("shop.max_retries", 2)
	v.SetDefault("shop.max_requests_per_second", 5)
	v.SetDefault("shop.category_delay", 300*time.Millisecond)
	v.SetDefault("shop.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("shop.accept_language", "es-ES,es;q=0.9,en;q=0.8")
	v.SetDefault("shop.max_pages", 100)
	v.SetDefault("shop.max_forced_probes", 50)

	v.SetDefault("hierarchy.strategy", StrategyScraped)
	v.SetDefault("hierarchy.include_root_ids", true)

	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.snapshot_file", "catalog.json")
	v.SetDefault("storage.images_dir", "static/images/products")
	v.SetDefault("storage.image_url_prefix", "/static/images/products")
	v.SetDefault("storage.refresh_images", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.sync_interval", 6*time.Hour)
	v.SetDefault("server.sync_on_start", true)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "catalog_products")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.lock_key", "catalog:sync:lock")
	v.SetDefault("redis.lock_ttl", 2*time.Hour)
	v.SetDefault("redis.stream", "catalog:stream:SyncCompleted")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
