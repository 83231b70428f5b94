// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds HTTP listener settings for the router daemon.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// RoutingConfig holds the classification and routing settings.
type RoutingConfig struct {
	RouteTablePath string `mapstructure:"route_table_path"`
	ResourcesDir   string `mapstructure:"resources_dir"`
	CacheTTL       int    `mapstructure:"cache_ttl"`      // milliseconds
	TrackerWindow  int    `mapstructure:"tracker_window"` // milliseconds
	HistorySize    int    `mapstructure:"history_size"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address     string `mapstructure:"address"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	SnapshotTTL int    `mapstructure:"snapshot_ttl"` // milliseconds
}

// GetAddr returns the Redis address in host:port form.
func (r RedisConfig) GetAddr() string {
	return r.Address
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds settings for the Prometheus/OTel endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// String renders the effective non-secret configuration for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf(
		"app=%s env=%s server=%s routes=%s redis=%s",
		c.App.Name, c.App.Environment, c.Server.Address,
		c.Routing.RouteTablePath, c.Database.Redis.Address,
	)
}
