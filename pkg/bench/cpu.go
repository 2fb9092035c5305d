package bench

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/koaf/server-benchmark/pkg/config"
	"github.com/koaf/server-benchmark/pkg/toolexec"
)

// CPUBenchmark drives a fixed prime-computation workload through sysbench.
type CPUBenchmark struct {
	cfg config.CPUConfig
}

// NewCPUBenchmark returns the CPU adapter.
func NewCPUBenchmark(cfg config.CPUConfig) *CPUBenchmark {
	return &CPUBenchmark{cfg: cfg}
}

func (b *CPUBenchmark) Name() string    { return "cpu" }
func (b *CPUBenchmark) Display() string { return "CPU" }

// Run invokes sysbench and extracts the events-per-second figure. Output
// that matches no known format yields a degraded-zero completed result
// rather than an error.
func (b *CPUBenchmark) Run(ctx context.Context, status StatusFunc) Result {
	status("Testing CPU performance...")

	res := toolexec.Run(ctx, "sysbench", []string{
		"cpu",
		fmt.Sprintf("--cpu-max-prime=%d", b.cfg.MaxPrime),
		fmt.Sprintf("--threads=%d", b.cfg.Threads),
		"run",
	}, &toolexec.Options{Timeout: time.Duration(b.cfg.TimeoutSeconds) * time.Second})

	switch {
	case res.NotInstalled():
		return Failed("sysbench not installed")
	case res.TimedOut():
		return Failed("timeout")
	case res.Err != nil:
		return Failed("%v", res.Err)
	}

	return Completed(map[string]float64{
		"events_per_second": parseEventsPerSecond(res.Stdout),
	})
}

// parseEventsPerSecond finds the first "events per second:" line in a
// sysbench cpu report. Returns 0 when no line matches.
func parseEventsPerSecond(output string) float64 {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "events per second:") {
			continue
		}
		_, value, _ := strings.Cut(line, ":")
		eps, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return eps
	}
	return 0
}
