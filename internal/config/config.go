// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	DataForSEO  DataForSEOConfig  `mapstructure:"dataforseo"`
	SearchAtlas SearchAtlasConfig `mapstructure:"searchatlas"`
	Storage     StorageConfig     `mapstructure:"storage"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig controls access to the relational database. An empty DSN
// selects the in-memory store.
type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// DataForSEOConfig holds credentials for the primary data provider.
type DataForSEOConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Login          string `mapstructure:"login"`
	Password       string `mapstructure:"password"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SearchAtlasConfig holds credentials for the fallback data provider.
type SearchAtlasConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// StorageConfig sets bucket and path conventions for report artifacts.
// GCSBucket takes precedence over LocalDir; with neither set artifacts
// stay in memory.
type StorageConfig struct {
	GCSBucket   string `mapstructure:"gcs_bucket"`
	LocalDir    string `mapstructure:"local_dir"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for audit completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// AuditConfig governs the audit pipeline and worker pool.
type AuditConfig struct {
	Workers        int `mapstructure:"workers"`
	QueueDepth     int `mapstructure:"queue_depth"`
	NearbyLocales  int `mapstructure:"nearby_locales"`
	SeedCount      int `mapstructure:"seed_count"`
	PerLocale      int `mapstructure:"per_locale"`
	MaxCompetitors int `mapstructure:"max_competitors"`
	KeywordLimit   int `mapstructure:"keyword_limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("dataforseo.timeout_seconds", 30)
	v.SetDefault("audit.workers", 2)
	v.SetDefault("audit.queue_depth", 64)
	v.SetDefault("audit.nearby_locales", 5)
	v.SetDefault("audit.seed_count", 10)
	v.SetDefault("audit.per_locale", 4)
	v.SetDefault("audit.max_competitors", 7)
	v.SetDefault("audit.keyword_limit", 200)
	v.SetDefault("storage.prefix", "reports")
	v.SetDefault("storage.content_type", "text/markdown; charset=utf-8")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Audit.Workers <= 0 {
		return fmt.Errorf("audit.workers must be > 0")
	}
	if c.Audit.QueueDepth <= 0 {
		return fmt.Errorf("audit.queue_depth must be > 0")
	}
	if c.Audit.NearbyLocales <= 0 {
		return fmt.Errorf("audit.nearby_locales must be > 0")
	}
	if c.DataForSEO.TimeoutSeconds <= 0 {
		return fmt.Errorf("dataforseo.timeout_seconds must be > 0")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when a topic is configured")
	}
	return nil
}

// ProviderTimeout converts the configured provider timeout into a duration.
func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.DataForSEO.TimeoutSeconds) * time.Second
}

// MaxConnLifetime converts the pool lifetime setting into a duration.
func (c DatabaseConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}
