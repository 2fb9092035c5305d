package bench

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/koaf/server-benchmark/pkg/config"
	"github.com/koaf/server-benchmark/pkg/toolexec"
)

// MemoryBenchmark drives a fixed-size block-transfer workload through
// sysbench memory.
type MemoryBenchmark struct {
	cfg config.MemoryConfig
}

// NewMemoryBenchmark returns the memory adapter.
func NewMemoryBenchmark(cfg config.MemoryConfig) *MemoryBenchmark {
	return &MemoryBenchmark{cfg: cfg}
}

func (b *MemoryBenchmark) Name() string    { return "memory" }
func (b *MemoryBenchmark) Display() string { return "Memory" }

func (b *MemoryBenchmark) Run(ctx context.Context, status StatusFunc) Result {
	status("Testing memory throughput...")

	res := toolexec.Run(ctx, "sysbench", []string{
		"memory",
		"--memory-block-size=" + b.cfg.BlockSize,
		"--memory-total-size=" + b.cfg.TotalSize,
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
		"throughput_mib_per_sec": parseMemoryThroughput(res.Stdout),
	})
}

// parseMemoryThroughput extracts the MiB/sec figure from the sysbench
// transfer summary, which reads like:
//
//	10240.00 MiB transferred (9016.73 MiB/sec)
//
// Returns 0 when no line matches.
func parseMemoryThroughput(output string) float64 {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "transferred") || !strings.Contains(line, "MiB/sec") {
			continue
		}
		_, inParens, found := strings.Cut(line, "(")
		if !found {
			continue
		}
		value, _, found := strings.Cut(inParens, "MiB/sec")
		if !found {
			continue
		}
		throughput, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return throughput
	}
	return 0
}
