// Package agentconfig loads the configuration payloadctl's daemon,
// status, and simulate subcommands build their Controller from:
// where the sqlite store lives, how verbose logging is, whether this
// build counts as "official" for backoff purposes, and where metrics
// go.
package agentconfig

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration document, normally loaded from
// /etc/payloadctl/config.yaml or a path given with --config.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Build   BuildConfig   `mapstructure:"build"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// StoreConfig locates the persistent key/value store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds the logging settings. Level and Format are loaded
// but not read by any subcommand: the core slog logger's level follows
// the --verbose flag and it always writes text to stderr.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// File, if set, diverts the zerolog CLI logger's output to a rotated
	// file instead of stderr; used only by the daemon subcommand. The
	// core slog logger keeps writing to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// BuildConfig fixes whether this install counts as an "official" build
// for backoff purposes (spec §4.5: backoff is official-build-only).
type BuildConfig struct {
	Official bool `mapstructure:"official"`
}

// MetricsConfig selects and configures the MetricsSink.
type MetricsConfig struct {
	// Backend is one of "prometheus", "log", or "none".
	Backend string `mapstructure:"backend"`

	// PrometheusListenAddr is where the Prometheus backend serves
	// /metrics, e.g. ":9102".
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Breaker wraps the selected backend in a circuit breaker so a
	// stalled metrics pipeline can't back up the event loop.
	Breaker bool `mapstructure:"breaker"`
}

// DefaultConfig returns the configuration payloadctl runs with when no
// config file and no overriding flags are present.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "/var/lib/payloadctl/state.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Build: BuildConfig{
			Official: true,
		},
		Metrics: MetricsConfig{
			Backend: "log",
			Breaker: true,
		},
	}
}

// Load reads configuration from path (if non-empty) or the standard
// search locations, layering it over DefaultConfig and environment
// variables prefixed PAYLOADCTL_.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", def.Logging.MaxAgeDays)
	v.SetDefault("build.official", def.Build.Official)
	v.SetDefault("metrics.backend", def.Metrics.Backend)
	v.SetDefault("metrics.breaker", def.Metrics.Breaker)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/payloadctl")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PAYLOADCTL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
