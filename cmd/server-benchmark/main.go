package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/koaf/server-benchmark/pkg/bench"
	"github.com/koaf/server-benchmark/pkg/config"
	"github.com/koaf/server-benchmark/pkg/metrics"
	"github.com/koaf/server-benchmark/pkg/store"
	"github.com/koaf/server-benchmark/pkg/sysinfo"
	"github.com/koaf/server-benchmark/pkg/web"
)

var version = "dev" // Set by -ldflags during build

func main() {
	// Define flags
	var (
		showVersion bool
		showHelp    bool
		debug       bool
		port        int
		dbPath      string
		configPath  string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	pflag.IntVar(&port, "port", 0, "HTTP server port (default: 8000)")
	pflag.StringVar(&dbPath, "db", "", "Result database file path (default: benchmark_results.json)")
	pflag.StringVar(&configPath, "config", "", "Path to config file (default: ~/.server-benchmark.yaml)")

	pflag.Parse()

	// Handle version
	if showVersion {
		fmt.Printf("server-benchmark version %s\n", version)
		os.Exit(0)
	}

	// Handle help
	if showHelp {
		printHelp()
		os.Exit(0)
	}

	// Override config path if specified
	if configPath != "" {
		os.Setenv("SB_CONFIG", configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags take precedence over config file and environment
	if port != 0 {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log, cfg); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Config) error {
	st, err := store.Open(cfg.GetDatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}

	adapters := []bench.Adapter{
		bench.NewCPUBenchmark(cfg.CPU),
		bench.NewMemoryBenchmark(cfg.Memory),
		bench.NewDiskBenchmark(cfg.Disk),
		bench.NewNetworkBenchmark(cfg.Network),
	}
	runner := bench.NewRunner(log, sysinfo.Collect, adapters,
		time.Duration(cfg.RunTimeoutSeconds)*time.Second)

	exporter := metrics.NewExporter()
	runner.OnComplete(exporter.Hook())

	handler := web.NewHandler(log, runner, st, exporter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	printBanner(cfg)
	log.Info("starting HTTP server", "port", cfg.Port, "database", cfg.GetDatabasePath())

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Println("============================================================")
	fmt.Println("Server Benchmark Comparison Tool")
	fmt.Println("============================================================")
	fmt.Printf("\nDatabase file: %s\n", cfg.GetDatabasePath())
	fmt.Printf("Starting HTTP server on port %d...\n", cfg.Port)
	fmt.Printf("\nAccess the benchmark GUI at:\n")
	fmt.Printf("  http://localhost:%d\n", cfg.Port)
	fmt.Printf("  http://<server-ip>:%d\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop the server")
	fmt.Println()
}

func printHelp() {
	fmt.Printf("server-benchmark - Host benchmark comparison server\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Runs CPU, memory, disk and network benchmarks on the local host and\n")
	fmt.Printf("  serves a web dashboard for comparing results across servers. Results\n")
	fmt.Printf("  are stored in a JSON file so they survive restarts.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  server-benchmark [OPTIONS]\n\n")

	fmt.Printf("ENDPOINTS:\n")
	fmt.Printf("  /               Web dashboard\n")
	fmt.Printf("  /api/benchmark  Start an unsaved benchmark run\n")
	fmt.Printf("  /api/status     Poll run progress and partial results\n")
	fmt.Printf("  /api/history    List saved results\n")
	fmt.Printf("  /api/save       Run benchmarks and save the result\n")
	fmt.Printf("  /api/delete     Delete one saved result\n")
	fmt.Printf("  /api/clear      Delete all saved results\n")
	fmt.Printf("  /metrics        Prometheus metrics\n\n")

	fmt.Printf("REQUIRED TOOLS:\n")
	fmt.Printf("  sysbench        CPU, memory and disk benchmarks\n")
	fmt.Printf("  iperf3          Network throughput (optional)\n")
	fmt.Printf("  ping, ip        Gateway latency (optional)\n")
	fmt.Printf("  dd              Disk fallback when sysbench output is unrecognized\n\n")

	fmt.Printf("ENVIRONMENT VARIABLES:\n")
	fmt.Printf("  SB_CONFIG       Path to config file\n")
	fmt.Printf("  SB_PORT         Override HTTP port\n")
	fmt.Printf("  SB_DB           Override database path\n\n")

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()

	fmt.Printf("\nEXAMPLES:\n")
	fmt.Printf("  # Start with defaults (port 8000)\n")
	fmt.Printf("  server-benchmark\n\n")

	fmt.Printf("  # Custom port and database location\n")
	fmt.Printf("  server-benchmark --port 9000 --db /var/lib/benchmarks/results.json\n\n")

	fmt.Printf("  # Debug logging\n")
	fmt.Printf("  server-benchmark -d\n\n")
}
