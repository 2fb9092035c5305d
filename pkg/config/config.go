package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the benchmark server configuration
type Config struct {
	Port         int    `yaml:"port"`
	DatabasePath string `yaml:"database"`

	// RunTimeoutSeconds bounds the wall-clock time of one full benchmark
	// run across all sub-benchmarks.
	RunTimeoutSeconds int `yaml:"run_timeout_seconds"`

	CPU     CPUConfig     `yaml:"cpu"`
	Memory  MemoryConfig  `yaml:"memory"`
	Disk    DiskConfig    `yaml:"disk"`
	Network NetworkConfig `yaml:"network"`
}

// CPUConfig tunes the sysbench prime-computation workload
type CPUConfig struct {
	MaxPrime       int `yaml:"max_prime"`
	Threads        int `yaml:"threads"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// MemoryConfig tunes the sysbench block-transfer workload
type MemoryConfig struct {
	BlockSize      string `yaml:"block_size"`
	TotalSize      string `yaml:"total_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DiskConfig tunes the sysbench fileio workload
type DiskConfig struct {
	FileTotalSize         string `yaml:"file_total_size"`
	RunSeconds            int    `yaml:"run_seconds"`
	PrepareTimeoutSeconds int    `yaml:"prepare_timeout_seconds"`
	RunTimeoutSeconds     int    `yaml:"run_timeout_seconds"`
	CleanupTimeoutSeconds int    `yaml:"cleanup_timeout_seconds"`
	ScratchFile           string `yaml:"scratch_file"`
}

// NetworkConfig tunes the throughput, latency and DNS probes
type NetworkConfig struct {
	IperfSeconds        int      `yaml:"iperf_seconds"`
	IperfTimeoutSeconds int      `yaml:"iperf_timeout_seconds"`
	PingCount           int      `yaml:"ping_count"`
	PingTimeoutSeconds  int      `yaml:"ping_timeout_seconds"`
	DNSDomains          []string `yaml:"dns_domains"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Port:              8000,
		DatabasePath:      "benchmark_results.json",
		RunTimeoutSeconds: 600,
		CPU: CPUConfig{
			MaxPrime:       20000,
			Threads:        4,
			TimeoutSeconds: 60,
		},
		Memory: MemoryConfig{
			BlockSize:      "1M",
			TotalSize:      "10G",
			TimeoutSeconds: 60,
		},
		Disk: DiskConfig{
			FileTotalSize:         "2G",
			RunSeconds:            10,
			PrepareTimeoutSeconds: 30,
			RunTimeoutSeconds:     30,
			CleanupTimeoutSeconds: 10,
			ScratchFile:           "/tmp/benchmark_test",
		},
		Network: NetworkConfig{
			IperfSeconds:        5,
			IperfTimeoutSeconds: 10,
			PingCount:           10,
			PingTimeoutSeconds:  15,
			DNSDomains:          []string{"google.com", "github.com", "cloudflare.com"},
		},
	}
}

// Load loads configuration from file and environment variables
// Priority: environment variables > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := GetConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Config file is optional, so we just skip if not found
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if port := os.Getenv("SB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SB_PORT %q: %w", port, err)
		}
		cfg.Port = p
	}
	if db := os.Getenv("SB_DB"); db != "" {
		cfg.DatabasePath = db
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Save saves the configuration to a file
func (cfg *Config) Save(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	configPath := os.Getenv("SB_CONFIG")
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(homeDir, ".server-benchmark.yaml")
		} else {
			configPath = ".server-benchmark.yaml"
		}
	}
	return configPath
}

// GetDatabasePath returns the database path, expanding ~/ if needed
func (cfg *Config) GetDatabasePath() string {
	if len(cfg.DatabasePath) > 0 && cfg.DatabasePath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, cfg.DatabasePath[2:])
		}
	}
	return cfg.DatabasePath
}

// Validate checks the configuration and prepares the database location
func (cfg *Config) Validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.RunTimeoutSeconds <= 0 {
		return fmt.Errorf("run_timeout_seconds must be positive, got %d", cfg.RunTimeoutSeconds)
	}
	if len(cfg.Network.DNSDomains) == 0 {
		return fmt.Errorf("network.dns_domains must not be empty")
	}
	return cfg.ValidateDatabase()
}

// ValidateDatabase ensures the database path is usable, creating its
// parent directory if needed
func (cfg *Config) ValidateDatabase() error {
	path := cfg.GetDatabasePath()
	if path == "" {
		return fmt.Errorf("database path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	return nil
}
