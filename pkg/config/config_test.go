package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}

	if cfg.DatabasePath != "benchmark_results.json" {
		t.Errorf("DatabasePath = %q, want benchmark_results.json", cfg.DatabasePath)
	}

	if cfg.CPU.MaxPrime != 20000 {
		t.Errorf("CPU.MaxPrime = %d, want 20000", cfg.CPU.MaxPrime)
	}

	if cfg.Disk.RunSeconds != 10 {
		t.Errorf("Disk.RunSeconds = %d, want 10", cfg.Disk.RunSeconds)
	}

	if len(cfg.Network.DNSDomains) != 3 {
		t.Errorf("Network.DNSDomains has %d entries, want 3", len(cfg.Network.DNSDomains))
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")

	cfg := DefaultConfig()
	cfg.Port = 9000
	cfg.DatabasePath = "/tmp/results.json"
	cfg.CPU.Threads = 8
	cfg.Network.DNSDomains = []string{"example.com"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedCfg := DefaultConfig()
	if err := loadFromFile(loadedCfg, configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Port != cfg.Port {
		t.Errorf("Port mismatch: expected %d, got %d", cfg.Port, loadedCfg.Port)
	}
	if loadedCfg.DatabasePath != cfg.DatabasePath {
		t.Errorf("DatabasePath mismatch: expected %q, got %q", cfg.DatabasePath, loadedCfg.DatabasePath)
	}
	if loadedCfg.CPU.Threads != 8 {
		t.Errorf("CPU.Threads mismatch: expected 8, got %d", loadedCfg.CPU.Threads)
	}
	if len(loadedCfg.Network.DNSDomains) != 1 || loadedCfg.Network.DNSDomains[0] != "example.com" {
		t.Errorf("Network.DNSDomains mismatch: got %v", loadedCfg.Network.DNSDomains)
	}
}

func TestPartialConfigFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(configPath, []byte("port: 9999\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	// Untouched sections keep their defaults
	if cfg.CPU.MaxPrime != 20000 {
		t.Errorf("CPU.MaxPrime = %d, want default 20000", cfg.CPU.MaxPrime)
	}
}

func TestLoadWithEnvironmentOverrides(t *testing.T) {
	t.Setenv("SB_PORT", "8081")
	t.Setenv("SB_DB", "/env/results.json")
	t.Setenv("SB_CONFIG", "/nonexistent/config")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 8081 {
		t.Errorf("Expected Port from env 8081, got %d", cfg.Port)
	}
	if cfg.DatabasePath != "/env/results.json" {
		t.Errorf("Expected DatabasePath from env '/env/results.json', got %q", cfg.DatabasePath)
	}
}

func TestLoadWithInvalidPortEnv(t *testing.T) {
	t.Setenv("SB_PORT", "not-a-port")
	t.Setenv("SB_CONFIG", "/nonexistent/config")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on an unparsable SB_PORT")
	}
}

func TestGetDatabasePath(t *testing.T) {
	tests := []struct {
		name     string
		dbPath   string
		expected func() string
	}{
		{
			name:   "absolute path",
			dbPath: "/absolute/path/to/results.json",
			expected: func() string {
				return "/absolute/path/to/results.json"
			},
		},
		{
			name:   "home directory expansion",
			dbPath: "~/benchmarks/results.json",
			expected: func() string {
				home, _ := os.UserHomeDir()
				return filepath.Join(home, "benchmarks/results.json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DatabasePath: tt.dbPath}
			got := cfg.GetDatabasePath()
			expected := tt.expected()
			if got != expected {
				t.Errorf("GetDatabasePath() = %v, want %v", got, expected)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("SB_CONFIG", "/custom/config/path")
	path := GetConfigPath()
	if path != "/custom/config/path" {
		t.Errorf("GetConfigPath() with env = %v, want /custom/config/path", path)
	}

	t.Setenv("SB_CONFIG", "")
	path = GetConfigPath()
	if path == "" {
		t.Error("GetConfigPath() should not return empty string")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save should create parent directories: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created in nested directory")
	}
}

func TestValidate(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) { c.DatabasePath = filepath.Join(tempDir, "results.json") },
		},
		{
			name:      "invalid port",
			mutate:    func(c *Config) { c.Port = 0 },
			wantError: "port",
		},
		{
			name:      "empty database path",
			mutate:    func(c *Config) { c.DatabasePath = "" },
			wantError: "database path is empty",
		},
		{
			name:      "zero run timeout",
			mutate:    func(c *Config) { c.RunTimeoutSeconds = 0 },
			wantError: "run_timeout_seconds",
		},
		{
			name:      "no dns domains",
			mutate:    func(c *Config) { c.Network.DNSDomains = nil },
			wantError: "dns_domains",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DatabasePath = filepath.Join(tempDir, "results.json")
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error %q should mention %q", err, tt.wantError)
			}
		})
	}
}

func TestValidateDatabase_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "results.json")
	cfg := DefaultConfig()
	cfg.DatabasePath = dbPath

	if err := cfg.ValidateDatabase(); err != nil {
		t.Fatalf("ValidateDatabase() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("ValidateDatabase() did not create database directory")
	}
}
