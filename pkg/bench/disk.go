package bench

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koaf/server-benchmark/pkg/config"
	"github.com/koaf/server-benchmark/pkg/toolexec"
)

// mbToMiB converts decimal MB/s figures from legacy sysbench builds to
// MiB/s (1 MB = 0.9537 MiB).
const mbToMiB = 0.9537

// DiskBenchmark measures mixed random read/write throughput via sysbench
// fileio, with a raw dd sequential measurement as a last resort when the
// sysbench report format is not recognized.
type DiskBenchmark struct {
	cfg config.DiskConfig
}

// NewDiskBenchmark returns the disk adapter.
func NewDiskBenchmark(cfg config.DiskConfig) *DiskBenchmark {
	return &DiskBenchmark{cfg: cfg}
}

func (b *DiskBenchmark) Name() string    { return "disk" }
func (b *DiskBenchmark) Display() string { return "Disk" }

// Run executes the three-stage fileio protocol: prepare, run, cleanup.
// Cleanup is best-effort and runs even when the measurement failed.
func (b *DiskBenchmark) Run(ctx context.Context, status StatusFunc) Result {
	sizeArg := "--file-total-size=" + b.cfg.FileTotalSize

	status("Preparing test files...")
	prep := toolexec.Run(ctx, "sysbench", []string{"fileio", sizeArg, "prepare"},
		&toolexec.Options{Timeout: time.Duration(b.cfg.PrepareTimeoutSeconds) * time.Second})
	switch {
	case prep.NotInstalled():
		return Failed("sysbench not installed")
	case prep.TimedOut():
		return Failed("timeout")
	case prep.Err != nil:
		return Failed("%v", prep.Err)
	}

	status("Testing disk I/O performance...")
	run := toolexec.Run(ctx, "sysbench", []string{
		"fileio",
		sizeArg,
		"--file-test-mode=rndrw",
		fmt.Sprintf("--time=%d", b.cfg.RunSeconds),
		"run",
	}, &toolexec.Options{Timeout: time.Duration(b.cfg.RunTimeoutSeconds) * time.Second})

	status("Cleaning up test files...")
	toolexec.Run(ctx, "sysbench", []string{"fileio", sizeArg, "cleanup"},
		&toolexec.Options{Timeout: time.Duration(b.cfg.CleanupTimeoutSeconds) * time.Second})

	switch {
	case run.TimedOut():
		return Failed("timeout")
	case run.Err != nil:
		return Failed("%v", run.Err)
	}

	readMiB, writeMiB, matched := parseFileioReport(run.Stdout)
	if !matched {
		// Different sysbench builds emit materially different report
		// formats; fall back to a raw sequential dd measurement rather
		// than report an outright failure.
		status("Using fallback dd test...")
		readMiB, writeMiB = b.ddFallback(ctx)
	}

	return Completed(map[string]float64{
		"read_mib_per_sec":  readMiB,
		"write_mib_per_sec": writeMiB,
	})
}

// parseFileioReport tries the known sysbench fileio report formats in
// order: the modern "read, MiB/s:" lines, then the legacy "MB/sec" tokens
// with unit conversion. matched reports whether any format was recognized,
// so a genuinely zero throughput is distinguishable from unparsed output.
func parseFileioReport(output string) (readMiB, writeMiB float64, matched bool) {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "read, mib/s:"):
			if v, ok := parseAfterColon(line); ok {
				readMiB = v
				matched = true
			}
		case strings.Contains(lower, "written, mib/s:"):
			if v, ok := parseAfterColon(line); ok {
				writeMiB = v
				matched = true
			}
		case strings.Contains(lower, "read") && containsMBRate(lower):
			if v, ok := parseLegacyMBRate(line); ok {
				readMiB = v * mbToMiB
				matched = true
			}
		case strings.Contains(lower, "written") && containsMBRate(lower):
			if v, ok := parseLegacyMBRate(line); ok {
				writeMiB = v * mbToMiB
				matched = true
			}
		}
	}
	return readMiB, writeMiB, matched
}

func containsMBRate(lower string) bool {
	return strings.Contains(lower, "mb/sec") || strings.Contains(lower, "mb/s")
}

// parseAfterColon reads the numeric value following the last colon, as in
// "read, MiB/s:  37.21".
func parseAfterColon(line string) (float64, bool) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLegacyMBRate finds the number immediately preceding an "MB" token,
// as in "read 80Mb/sec ..." style reports: "... (1.5600Mb/sec)" varies by
// build, so the value is taken from the field before the unit.
func parseLegacyMBRate(line string) (float64, bool) {
	fields := strings.Fields(line)
	for i, field := range fields {
		if !strings.Contains(strings.ToLower(field), "mb") || i == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[i-1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// ddFallback measures raw sequential write-then-read throughput against a
// scratch file. The scratch file is removed regardless of outcome.
func (b *DiskBenchmark) ddFallback(ctx context.Context) (readMiB, writeMiB float64) {
	scratch := b.cfg.ScratchFile
	defer os.Remove(scratch)

	timeout := &toolexec.Options{Timeout: time.Duration(b.cfg.RunTimeoutSeconds) * time.Second}

	write := toolexec.Run(ctx, "dd", []string{
		"if=/dev/zero", "of=" + scratch, "bs=1M", "count=1024", "conv=fdatasync",
	}, timeout)
	if write.Err == nil {
		// dd reports its summary on stderr
		writeMiB = parseDDRate(write.Stderr)
	}

	read := toolexec.Run(ctx, "dd", []string{
		"if=" + scratch, "of=/dev/null", "bs=1M",
	}, timeout)
	if read.Err == nil {
		readMiB = parseDDRate(read.Stderr)
	}

	return readMiB, writeMiB
}

// parseDDRate extracts the transfer rate from a dd trailer such as
// "1073741824 bytes (1.1 GB, 1.0 GiB) copied, 2.41551 s, 444 MB/s".
func parseDDRate(stderr string) float64 {
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "bytes") || !strings.Contains(line, "copied") {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			lower := strings.ToLower(part)
			if !strings.Contains(lower, "mb/s") && !strings.Contains(lower, "gb/s") {
				continue
			}
			fields := strings.Fields(strings.TrimSpace(part))
			if len(fields) == 0 {
				continue
			}
			v, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				continue
			}
			return v
		}
	}
	return 0
}
