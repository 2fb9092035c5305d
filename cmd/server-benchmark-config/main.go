package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/koaf/server-benchmark/pkg/config"
)

var version = "dev" // Set by -ldflags during build

func main() {
	// Define flags
	var (
		showVersion bool
		showHelp    bool
		configPath  string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.StringVar(&configPath, "config", "", "Path to config file (default: ~/.server-benchmark.yaml)")

	pflag.Parse()

	// Handle version
	if showVersion {
		fmt.Printf("server-benchmark-config version %s\n", version)
		os.Exit(0)
	}

	// Handle help
	if showHelp {
		printHelp()
		os.Exit(0)
	}

	// Get subcommand
	args := pflag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: subcommand required\n\n")
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]

	// Override config path if specified
	if configPath != "" {
		os.Setenv("SB_CONFIG", configPath)
	}

	// Execute subcommand
	switch subcommand {
	case "init":
		handleInit(args[1:])
	case "set":
		handleSet(args[1:])
	case "get":
		handleGet(args[1:])
	case "show":
		handleShow()
	case "path":
		handlePath()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand '%s'\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func handleInit(args []string) {
	// Parse flags for init
	var force bool
	flags := pflag.NewFlagSet("init", pflag.ExitOnError)
	flags.BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	flags.Parse(args)

	configPath := config.GetConfigPath()

	// Check if config exists
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(os.Stderr, "Error: config file already exists at %s\n", configPath)
		fmt.Fprintf(os.Stderr, "Use --force to overwrite\n")
		os.Exit(1)
	}

	// Create default config
	cfg := config.DefaultConfig()

	// Save config
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Created config file at %s\n", configPath)
	fmt.Println("\nDefault configuration:")
	fmt.Printf("  port:     %d\n", cfg.Port)
	fmt.Printf("  database: %s\n", cfg.DatabasePath)
	fmt.Println("\nEdit the file or use 'server-benchmark-config set' to customize.")
}

func handleSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Error: 'set' requires KEY and VALUE arguments\n\n")
		fmt.Fprintf(os.Stderr, "Usage: server-benchmark-config set KEY VALUE\n")
		fmt.Fprintf(os.Stderr, "\nValid keys:\n")
		fmt.Fprintf(os.Stderr, "  port                  HTTP server port\n")
		fmt.Fprintf(os.Stderr, "  database              Path to result JSON file\n")
		fmt.Fprintf(os.Stderr, "  run_timeout_seconds   Full-run wall clock limit\n")
		os.Exit(1)
	}

	key := args[0]
	value := args[1]

	// Load existing config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Try running 'server-benchmark-config init' first\n")
		os.Exit(1)
	}

	// Set the value
	switch key {
	case "port":
		p, err := strconv.Atoi(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid port value %q\n", value)
			os.Exit(1)
		}
		cfg.Port = p
	case "database":
		cfg.DatabasePath = value
	case "run_timeout_seconds":
		t, err := strconv.Atoi(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid timeout value %q\n", value)
			os.Exit(1)
		}
		cfg.RunTimeoutSeconds = t
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown config key '%s'\n", key)
		fmt.Fprintf(os.Stderr, "Valid keys: port, database, run_timeout_seconds\n")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Save config
	configPath := config.GetConfigPath()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Set %s = %v\n", key, value)
}

func handleGet(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: 'get' requires KEY argument\n\n")
		fmt.Fprintf(os.Stderr, "Usage: server-benchmark-config get KEY\n")
		fmt.Fprintf(os.Stderr, "\nValid keys: port, database, run_timeout_seconds\n")
		os.Exit(1)
	}

	key := args[0]

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Get the value
	switch key {
	case "port":
		fmt.Println(cfg.Port)
	case "database":
		fmt.Println(cfg.GetDatabasePath())
	case "run_timeout_seconds":
		fmt.Println(cfg.RunTimeoutSeconds)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown config key '%s'\n", key)
		fmt.Fprintf(os.Stderr, "Valid keys: port, database, run_timeout_seconds\n")
		os.Exit(1)
	}
}

func handleShow() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	configPath := config.GetConfigPath()
	fmt.Printf("Configuration from: %s\n\n", configPath)
	fmt.Printf("port:                  %d\n", cfg.Port)
	fmt.Printf("database:              %s\n", cfg.GetDatabasePath())
	fmt.Printf("run_timeout_seconds:   %d\n", cfg.RunTimeoutSeconds)
	fmt.Printf("cpu.max_prime:         %d\n", cfg.CPU.MaxPrime)
	fmt.Printf("cpu.threads:           %d\n", cfg.CPU.Threads)
	fmt.Printf("memory.block_size:     %s\n", cfg.Memory.BlockSize)
	fmt.Printf("memory.total_size:     %s\n", cfg.Memory.TotalSize)
	fmt.Printf("disk.file_total_size:  %s\n", cfg.Disk.FileTotalSize)
	fmt.Printf("disk.scratch_file:     %s\n", cfg.Disk.ScratchFile)
	fmt.Printf("network.iperf_seconds: %d\n", cfg.Network.IperfSeconds)
	fmt.Printf("network.ping_count:    %d\n", cfg.Network.PingCount)
	fmt.Printf("network.dns_domains:   %v\n", cfg.Network.DNSDomains)

	// Show environment variable overrides
	fmt.Println("\nEnvironment variable overrides:")
	if port := os.Getenv("SB_PORT"); port != "" {
		fmt.Printf("  SB_PORT=%s (overrides port)\n", port)
	}
	if dbPath := os.Getenv("SB_DB"); dbPath != "" {
		fmt.Printf("  SB_DB=%s (overrides database)\n", dbPath)
	}
}

func handlePath() {
	configPath := config.GetConfigPath()
	fmt.Println(configPath)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: server-benchmark-config [OPTIONS] SUBCOMMAND\n\n")
	fmt.Fprintf(os.Stderr, "Manage server-benchmark configuration\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  init          Create default config file\n")
	fmt.Fprintf(os.Stderr, "  set KEY VAL   Set configuration value\n")
	fmt.Fprintf(os.Stderr, "  get KEY       Get configuration value\n")
	fmt.Fprintf(os.Stderr, "  show          Show all configuration\n")
	fmt.Fprintf(os.Stderr, "  path          Show config file path\n\n")
	pflag.PrintDefaults()
}

func printHelp() {
	fmt.Printf("server-benchmark-config - Manage server-benchmark configuration\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Manages configuration for the benchmark server. Configuration is stored\n")
	fmt.Printf("  in ~/.server-benchmark.yaml by default and can be overridden with\n")
	fmt.Printf("  environment variables.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  server-benchmark-config [OPTIONS] SUBCOMMAND\n\n")

	fmt.Printf("SUBCOMMANDS:\n")
	fmt.Printf("  init          Create default configuration file\n")
	fmt.Printf("  set KEY VAL   Set a configuration value\n")
	fmt.Printf("  get KEY       Get a configuration value\n")
	fmt.Printf("  show          Display all configuration values\n")
	fmt.Printf("  path          Show the config file path\n\n")

	fmt.Printf("CONFIGURATION KEYS:\n")
	fmt.Printf("  port                  HTTP server port\n")
	fmt.Printf("                        Default: 8000\n\n")
	fmt.Printf("  database              Path to the result JSON file\n")
	fmt.Printf("                        Default: benchmark_results.json\n\n")
	fmt.Printf("  run_timeout_seconds   Wall-clock limit for one full run\n")
	fmt.Printf("                        Default: 600\n\n")

	fmt.Printf("ENVIRONMENT VARIABLES:\n")
	fmt.Printf("  SB_CONFIG    Path to config file\n")
	fmt.Printf("  SB_PORT      Override HTTP port\n")
	fmt.Printf("  SB_DB        Override database path\n\n")

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()

	fmt.Printf("\nEXAMPLES:\n")
	fmt.Printf("  # Create default config\n")
	fmt.Printf("  server-benchmark-config init\n\n")

	fmt.Printf("  # Move the result database\n")
	fmt.Printf("  server-benchmark-config set database /var/lib/benchmarks/results.json\n\n")

	fmt.Printf("  # Change the port\n")
	fmt.Printf("  server-benchmark-config set port 9000\n\n")

	fmt.Printf("  # View all configuration\n")
	fmt.Printf("  server-benchmark-config show\n\n")

	fmt.Printf("  # Find config file location\n")
	fmt.Printf("  server-benchmark-config path\n\n")
}
