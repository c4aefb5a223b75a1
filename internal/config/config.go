// Package config loads and validates the mdlreport configuration from
// file, environment, and flags via viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/aryankumar/mdlreport/internal/util"
)

const (
	defaultConfigName = ".mdlreport"
	envPrefix         = "MDLREPORT"
)

// Manager handles mdlreport configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
// An empty configPath falls back to $HOME/.mdlreport.yaml
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// Load loads the configuration from file and environment
// A missing config file is not an error; defaults still apply
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.AutomaticEnv()

	m.config = &Config{}

	if err := m.viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(m.config)
	normalize(m.config)

	return m.config, nil
}

// Config returns the loaded configuration
func (m *Manager) Config() *Config {
	return m.config
}

// ConfigFileUsed returns the path of the config file that was read
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// applyDefaults fills unset values with their defaults
func applyDefaults(cfg *Config) {
	if cfg.Defaults.Parallel == 0 {
		cfg.Defaults.Parallel = DefaultParallel
	}
	if cfg.Defaults.Timeout == 0 {
		cfg.Defaults.Timeout = DefaultTimeout
	}
	if cfg.Defaults.OutputFormat == "" {
		cfg.Defaults.OutputFormat = "table"
	}
}

// normalize cleans up user-supplied values
func normalize(cfg *Config) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.Token = strings.TrimSpace(cfg.Token)
}

// Validate checks the configuration for a report run
func Validate(cfg *Config) error {
	if cfg.URL == "" {
		return util.NewValidationError("url", nil, "Moodle base URL is required")
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return util.NewValidationError("url", cfg.URL, "must be an absolute URL")
	}

	if cfg.Token == "" {
		return util.NewValidationError("token", nil, "web-service token is required")
	}

	if cfg.Defaults.Parallel < 1 {
		return util.NewValidationError("parallel", cfg.Defaults.Parallel, "must be at least 1")
	}

	if cfg.Defaults.Timeout <= 0 {
		return util.NewValidationError("timeout", cfg.Defaults.Timeout, "must be positive")
	}

	switch cfg.Defaults.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		return util.NewValidationError("output", cfg.Defaults.OutputFormat, "must be table, json, or yaml")
	}

	return nil
}
