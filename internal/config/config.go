// Package config manages twinprov configuration. Values come from, in rising
// precedence: built-in defaults, ~/.twinprov/config.json, TWINPROV_* environment
// variables and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/twinprov/twinprov/internal/scope"
)

const (
	ConfigDirName   = ".twinprov"
	ConfigFileName  = "config.json"
	DefaultLogLevel = "info"
	EnvPrefix       = "TWINPROV"

	StrategyFixed       = "fixed"
	StrategyExponential = "exponential"
)

// Config holds user-level configuration for the twinprov CLI.
type Config struct {
	Region                string       `mapstructure:"region" json:"region"`
	Profile               string       `mapstructure:"profile" json:"profile"`
	LogLevel              string       `mapstructure:"log_level" json:"log_level"`
	LogFormat             string       `mapstructure:"log_format" json:"log_format"`                         // console | json
	StateDir              string       `mapstructure:"state_dir" json:"state_dir"`                           // run history and audit databases
	RateLimitPerService   int          `mapstructure:"rate_limit_per_service" json:"rate_limit_per_service"` // req/s
	Retry                 RetryConfig  `mapstructure:"retry" json:"retry"`
	RequireConfirmDestroy bool         `mapstructure:"require_confirm_destroy" json:"require_confirm_destroy"`
	DashboardRole         bool         `mapstructure:"dashboard_role" json:"dashboard_role"`
	Scope                 scope.Limits `mapstructure:"scope" json:"scope"` // empty lists allow any account or region
}

// RetryConfig tunes the workspace creation retry loop.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" json:"delay"`
	Strategy    string        `mapstructure:"strategy" json:"strategy"`   // fixed | exponential
	MaxDelay    time.Duration `mapstructure:"max_delay" json:"max_delay"` // exponential only
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:            DefaultLogLevel,
		LogFormat:           "console",
		StateDir:            filepath.Join(ConfigDir(), "state"),
		RateLimitPerService: 10,
		Retry: RetryConfig{
			MaxAttempts: 10,
			Delay:       2 * time.Second,
			Strategy:    StrategyFixed,
			MaxDelay:    30 * time.Second,
		},
		RequireConfirmDestroy: true,
		DashboardRole:         true,
	}
}

// ConfigDir returns the global twinprov config directory path.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ConfigDirName)
}

// DefaultConfigPath returns ~/.twinprov/config.json.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// NewViper returns a viper instance preloaded with defaults and environment
// bindings. Flags are bound by the CLI before Load is called.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("region", d.Region)
	v.SetDefault("profile", d.Profile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("rate_limit_per_service", d.RateLimitPerService)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.delay", d.Retry.Delay)
	v.SetDefault("retry.strategy", d.Retry.Strategy)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	v.SetDefault("require_confirm_destroy", d.RequireConfirmDestroy)
	v.SetDefault("dashboard_role", d.DashboardRole)
	v.SetDefault("scope.accounts", []string{})
	v.SetDefault("scope.regions", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (DefaultConfigPath when empty) into v and
// decodes the merged result. A missing file is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the provisioner cannot act on.
func (c Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay must not be negative")
	}
	switch c.Retry.Strategy {
	case StrategyFixed, StrategyExponential:
	default:
		return fmt.Errorf("retry.strategy must be %q or %q, got %q", StrategyFixed, StrategyExponential, c.Retry.Strategy)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must be set")
	}
	return nil
}

// Save persists cfg as JSON to path (DefaultConfigPath when empty). Durations
// are written in their string form so the file stays hand-editable.
func Save(cfg Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	out := map[string]any{
		"region":                 cfg.Region,
		"profile":                cfg.Profile,
		"log_level":              cfg.LogLevel,
		"log_format":             cfg.LogFormat,
		"state_dir":              cfg.StateDir,
		"rate_limit_per_service": cfg.RateLimitPerService,
		"retry": map[string]any{
			"max_attempts": cfg.Retry.MaxAttempts,
			"delay":        cfg.Retry.Delay.String(),
			"strategy":     cfg.Retry.Strategy,
			"max_delay":    cfg.Retry.MaxDelay.String(),
		},
		"require_confirm_destroy": cfg.RequireConfirmDestroy,
		"dashboard_role":          cfg.DashboardRole,
		"scope": map[string]any{
			"accounts": nonNil(cfg.Scope.Accounts),
			"regions":  nonNil(cfg.Scope.Regions),
		},
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
