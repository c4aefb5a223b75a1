package config

import "time"

// Config represents the mdlreport configuration file structure
type Config struct {
	// URL is the base URL of the Moodle instance
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Token is the web-service access token
	Token string `yaml:"token,omitempty" json:"token,omitempty"`

	// Defaults contains default settings for report runs
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty"`
}

// DefaultsConfig contains default configuration values
type DefaultsConfig struct {
	// Timeout for individual API requests
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Parallel is the worker-pool width for per-course aggregation
	Parallel int `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// OutputFormat is the default output format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty"`
}

const (
	// DefaultParallel is the default worker-pool width
	DefaultParallel = 8

	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 60 * time.Second
)
