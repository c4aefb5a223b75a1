package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mdlreport.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestManagerLoad(t *testing.T) {
	path := writeConfigFile(t, `
url: https://lms.example.com/
token: abc123
defaults:
  parallel: 4
  timeout: 30s
  outputFormat: json
  noColor: true
`)

	mgr := NewManager(path)
	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.URL != "https://lms.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.URL)
	}
	if cfg.Token != "abc123" {
		t.Errorf("unexpected token %q", cfg.Token)
	}
	if cfg.Defaults.Parallel != 4 {
		t.Errorf("expected parallel 4, got %d", cfg.Defaults.Parallel)
	}
	if cfg.Defaults.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Defaults.Timeout)
	}
	if cfg.Defaults.OutputFormat != "json" {
		t.Errorf("expected output json, got %q", cfg.Defaults.OutputFormat)
	}
	if !cfg.Defaults.NoColor {
		t.Error("expected noColor true")
	}

	if mgr.ConfigFileUsed() != path {
		t.Errorf("expected config file %q, got %q", path, mgr.ConfigFileUsed())
	}
}

func TestManagerLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
url: https://lms.example.com
token: abc123
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Defaults.Parallel != DefaultParallel {
		t.Errorf("expected default parallel %d, got %d", DefaultParallel, cfg.Defaults.Parallel)
	}
	if cfg.Defaults.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, cfg.Defaults.Timeout)
	}
	if cfg.Defaults.OutputFormat != "table" {
		t.Errorf("expected default output table, got %q", cfg.Defaults.OutputFormat)
	}
}

func TestManagerLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "url: [unclosed")

	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			URL:   "https://lms.example.com",
			Token: "abc123",
			Defaults: DefaultsConfig{
				Parallel:     8,
				Timeout:      60 * time.Second,
				OutputFormat: "table",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.URL = "" },
			wantErr: true,
		},
		{
			name:    "relative url",
			mutate:  func(c *Config) { c.URL = "lms.example.com" },
			wantErr: true,
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Token = "" },
			wantErr: true,
		},
		{
			name:    "zero parallel",
			mutate:  func(c *Config) { c.Defaults.Parallel = 0 },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Defaults.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Defaults.OutputFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "empty output format allowed",
			mutate:  func(c *Config) { c.Defaults.OutputFormat = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
