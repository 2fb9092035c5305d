package bench

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/koaf/server-benchmark/pkg/config"
	"github.com/koaf/server-benchmark/pkg/toolexec"
)

// NetworkBenchmark runs four independent probes: cumulative interface
// counters, loopback throughput via iperf3, gateway latency via ping, and
// DNS resolution timing. Each probe records its own error; the adapter as
// a whole always completes.
type NetworkBenchmark struct {
	cfg config.NetworkConfig

	// lookupHost is swappable for tests; defaults to the system resolver.
	lookupHost func(ctx context.Context, host string) ([]string, error)

	// procNetDev is the interface counter source, /proc/net/dev.
	procNetDev string
}

// NewNetworkBenchmark returns the network adapter.
func NewNetworkBenchmark(cfg config.NetworkConfig) *NetworkBenchmark {
	return &NetworkBenchmark{
		cfg:        cfg,
		lookupHost: net.DefaultResolver.LookupHost,
		procNetDev: "/proc/net/dev",
	}
}

func (b *NetworkBenchmark) Name() string    { return "network" }
func (b *NetworkBenchmark) Display() string { return "Network" }

func (b *NetworkBenchmark) Run(ctx context.Context, status StatusFunc) Result {
	status("Testing network performance...")

	metrics := make(map[string]float64)
	labels := make(map[string]string)

	b.probeCounters(metrics)

	status("Testing network throughput with iperf3...")
	b.probeThroughput(ctx, metrics, labels)

	status("Testing network latency...")
	b.probeLatency(ctx, metrics, labels)

	status("Testing DNS resolution speed...")
	b.probeDNS(ctx, metrics, labels)

	return Result{Status: StatusCompleted, Metrics: metrics, Labels: labels}
}

// probeCounters reads cumulative bytes sent/received since boot from the
// kernel interface statistics. Failures are silently skipped; the fields
// are simply absent.
func (b *NetworkBenchmark) probeCounters(metrics map[string]float64) {
	data, err := os.ReadFile(b.procNetDev)
	if err != nil {
		return
	}
	sent, recv, ok := parseNetDev(string(data))
	if !ok {
		return
	}
	metrics["total_bytes_sent_gb"] = round2(sent / (1 << 30))
	metrics["total_bytes_recv_gb"] = round2(recv / (1 << 30))
}

// parseNetDev sums transmit and receive byte counters across all
// interfaces in /proc/net/dev content.
func parseNetDev(content string) (sent, recv float64, ok bool) {
	for _, line := range strings.Split(content, "\n") {
		_, stats, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields := strings.Fields(stats)
		// 16 counters per interface: bytes is field 0 (receive) and
		// field 8 (transmit)
		if len(fields) < 16 {
			continue
		}
		r, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		s, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			continue
		}
		recv += r
		sent += s
		ok = true
	}
	return sent, recv, ok
}

// iperfReport is the subset of the iperf3 JSON summary we consume.
type iperfReport struct {
	End struct {
		SumSent struct {
			BitsPerSecond float64 `json:"bits_per_second"`
		} `json:"sum_sent"`
		SumReceived struct {
			BitsPerSecond float64 `json:"bits_per_second"`
		} `json:"sum_received"`
	} `json:"end"`
}

// probeThroughput starts a one-shot loopback iperf3 server, runs a bounded
// client test against it and decodes the JSON summary.
func (b *NetworkBenchmark) probeThroughput(ctx context.Context, metrics map[string]float64, labels map[string]string) {
	server, err := toolexec.Start("iperf3", "-s", "-1")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			labels["throughput_error"] = "iperf3 not installed"
		} else {
			labels["throughput_error"] = err.Error()
		}
		return
	}

	// Give the server a moment to bind before connecting.
	time.Sleep(time.Second)

	client := toolexec.Run(ctx, "iperf3", []string{
		"-c", "127.0.0.1",
		"-t", strconv.Itoa(b.cfg.IperfSeconds),
		"-J",
	}, &toolexec.Options{Timeout: time.Duration(b.cfg.IperfTimeoutSeconds) * time.Second})

	_ = server.WaitTimeout(2 * time.Second)

	switch {
	case client.NotInstalled():
		labels["throughput_error"] = "iperf3 not installed"
		return
	case client.TimedOut():
		labels["throughput_error"] = "iperf3 timeout"
		return
	case client.Err != nil:
		labels["throughput_error"] = client.Err.Error()
		return
	}

	var report iperfReport
	if err := json.Unmarshal([]byte(client.Stdout), &report); err != nil {
		labels["throughput_error"] = "unrecognized iperf3 output"
		return
	}

	metrics["throughput_send_mbps"] = round2(report.End.SumSent.BitsPerSecond / 1e6)
	metrics["throughput_recv_mbps"] = round2(report.End.SumReceived.BitsPerSecond / 1e6)
}

// probeLatency pings the default gateway and parses the rtt summary.
func (b *NetworkBenchmark) probeLatency(ctx context.Context, metrics map[string]float64, labels map[string]string) {
	route := toolexec.Run(ctx, "ip", []string{"route", "show", "default"},
		&toolexec.Options{Timeout: 5 * time.Second})
	if !route.Success() {
		labels["latency_error"] = "default gateway not found"
		return
	}

	gateway, ok := parseDefaultGateway(route.Stdout)
	if !ok {
		labels["latency_error"] = "default gateway not found"
		return
	}

	ping := toolexec.Run(ctx, "ping", []string{
		"-c", strconv.Itoa(b.cfg.PingCount),
		"-q", gateway,
	}, &toolexec.Options{Timeout: time.Duration(b.cfg.PingTimeoutSeconds) * time.Second})

	switch {
	case ping.NotInstalled():
		labels["latency_error"] = "ping not installed"
		return
	case ping.TimedOut():
		labels["latency_error"] = "ping timeout"
		return
	case ping.Err != nil:
		labels["latency_error"] = ping.Err.Error()
		return
	}

	minMs, avgMs, maxMs, ok := parsePingSummary(ping.Stdout)
	if !ok {
		labels["latency_error"] = "ping output not recognized"
		return
	}

	metrics["latency_min_ms"] = minMs
	metrics["latency_avg_ms"] = avgMs
	metrics["latency_max_ms"] = maxMs
	labels["latency_gateway"] = gateway
}

// parseDefaultGateway extracts the gateway address from an
// "ip route show default" line such as
// "default via 192.168.1.1 dev eth0 proto dhcp".
func parseDefaultGateway(output string) (string, bool) {
	fields := strings.Fields(output)
	for i, field := range fields {
		if field == "via" && i+1 < len(fields) {
			return fields[i+1], true
		}
	}
	return "", false
}

// parsePingSummary parses the "rtt min/avg/max/mdev = a/b/c/d ms" line
// (BSD ping says "round-trip min/avg/max").
func parsePingSummary(output string) (minMs, avgMs, maxMs float64, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "min/avg/max") {
			continue
		}
		_, stats, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields := strings.Fields(stats)
		if len(fields) == 0 {
			continue
		}
		parts := strings.Split(fields[0], "/")
		if len(parts) < 3 {
			continue
		}
		var vals [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(parts[i], 64)
			if err != nil {
				return 0, 0, 0, false
			}
			vals[i] = v
		}
		return vals[0], vals[1], vals[2], true
	}
	return 0, 0, 0, false
}

// probeDNS resolves the configured domains sequentially, timing each. The
// probe is atomic: a failure on any domain records dns_error and no
// partial statistics are kept.
func (b *NetworkBenchmark) probeDNS(ctx context.Context, metrics map[string]float64, labels map[string]string) {
	times := make([]float64, 0, len(b.cfg.DNSDomains))
	for _, domain := range b.cfg.DNSDomains {
		start := time.Now()
		if _, err := b.lookupHost(ctx, domain); err != nil {
			labels["dns_error"] = err.Error()
			return
		}
		times = append(times, float64(time.Since(start).Microseconds())/1000)
	}
	if len(times) == 0 {
		return
	}

	metrics["dns_avg_ms"] = round2(lo.Sum(times) / float64(len(times)))
	metrics["dns_min_ms"] = round2(lo.Min(times))
	metrics["dns_max_ms"] = round2(lo.Max(times))
}
