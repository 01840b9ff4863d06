package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Config represents the shardkeeper daemon configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Shards    ShardsConfig    `mapstructure:"shards"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Placement PlacementConfig `mapstructure:"placement"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents the admin HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DirectoryConfig represents the PostgreSQL directory database configuration
type DirectoryConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
}

// ShardsConfig represents the per-shard database endpoints. DSN keys are
// shard ids.
type ShardsConfig struct {
	DSNs             map[string]string `mapstructure:"dsns"`
	MaxConnsPerShard int               `mapstructure:"max_conns_per_shard"`
}

// ShardDSNs converts the configured DSN map to shard-id keys.
func (c ShardsConfig) ShardDSNs() (map[int64]string, error) {
	dsns := make(map[int64]string, len(c.DSNs))
	for key, dsn := range c.DSNs {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard id %q in shards.dsns: %w", key, err)
		}
		dsns[id] = dsn
	}
	return dsns, nil
}

// RedisConfig represents the Redis tenant cache configuration. When
// disabled, an in-memory cache is used instead.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig represents tenant record pipeline configuration
type PipelineConfig struct {
	GroupWorkers  int           `mapstructure:"group_workers"`
	FailOnMissing bool          `mapstructure:"fail_on_missing"`
	LoadTimeout   time.Duration `mapstructure:"load_timeout"`
}

// PlacementConfig represents schema placement configuration
type PlacementConfig struct {
	SchemaPrefix string `mapstructure:"schema_prefix"`
}

// CacheConfig represents tenant record cache configuration
type CacheConfig struct {
	TenantRecordTTL time.Duration `mapstructure:"tenant_record_ttl"`
	MaxSize         int           `mapstructure:"max_size"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Directory.Host == "" {
		return errors.New("directory.host is required")
	}
	if c.Directory.Database == "" {
		return errors.New("directory.database is required")
	}
	if c.Directory.User == "" {
		return errors.New("directory.user is required")
	}
	if _, err := c.Shards.ShardDSNs(); err != nil {
		return err
	}
	if c.Shards.MaxConnsPerShard <= 0 {
		return errors.New("shards.max_conns_per_shard must be positive")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return errors.New("redis.host is required when redis is enabled")
	}
	if c.Pipeline.GroupWorkers <= 0 {
		return errors.New("pipeline.group_workers must be positive")
	}
	if c.Placement.SchemaPrefix == "" {
		return errors.New("placement.schema_prefix is required")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8780,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Directory: DirectoryConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "tenant_directory",
			User:           "shardkeeper",
			Password:       "",
			MaxConnections: 20,
			MinConnections: 2,
		},
		Shards: ShardsConfig{
			DSNs:             map[string]string{},
			MaxConnsPerShard: 10,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
		},
		Pipeline: PipelineConfig{
			GroupWorkers:  8,
			FailOnMissing: false,
			LoadTimeout:   30 * time.Second,
		},
		Placement: PlacementConfig{
			SchemaPrefix: "tenant_db",
		},
		Cache: CacheConfig{
			TenantRecordTTL: 5 * time.Minute,
			MaxSize:         10000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
