package bench

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/koaf/server-benchmark/pkg/sysinfo"
)

// Result statuses. A sub-benchmark either completed (possibly with
// degraded-zero metrics) or failed outright.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Result is the outcome of one sub-benchmark. Metrics hold the numeric
// measurements; Labels hold non-numeric fields such as the ping gateway or
// per-probe error strings. Both are flattened into a single JSON object
// alongside status, so a completed CPU result serializes as
// {"events_per_second": 1234.5, "status": "completed"}.
type Result struct {
	Status  string
	Err     string
	Metrics map[string]float64
	Labels  map[string]string
}

// Completed builds a successful result from a set of named metrics.
func Completed(metrics map[string]float64) Result {
	return Result{Status: StatusCompleted, Metrics: metrics}
}

// Failed builds an error result with the given message.
func Failed(format string, args ...any) Result {
	return Result{Status: StatusError, Err: fmt.Sprintf(format, args...)}
}

// MarshalJSON flattens metrics and labels into one object with the
// reserved keys "status" and "error".
func (r Result) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Metrics)+len(r.Labels)+2)
	for k, v := range r.Metrics {
		obj[k] = v
	}
	for k, v := range r.Labels {
		obj[k] = v
	}
	obj["status"] = r.Status
	if r.Err != "" {
		obj["error"] = r.Err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON is the inverse of MarshalJSON: numeric fields become
// metrics, string fields become labels.
func (r *Result) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*r = Result{}
	for k, v := range obj {
		switch k {
		case "status":
			if s, ok := v.(string); ok {
				r.Status = s
			}
		case "error":
			if s, ok := v.(string); ok {
				r.Err = s
			}
		default:
			switch val := v.(type) {
			case float64:
				if r.Metrics == nil {
					r.Metrics = make(map[string]float64)
				}
				r.Metrics[k] = val
			case string:
				if r.Labels == nil {
					r.Labels = make(map[string]string)
				}
				r.Labels[k] = val
			}
		}
	}
	return nil
}

// Envelope is the aggregate outcome of one full benchmark run, the unit
// exchanged between the runner and the result store.
type Envelope struct {
	SystemInfo sysinfo.Info      `json:"system_info"`
	Benchmarks map[string]Result `json:"benchmarks"`
	CustomName string            `json:"custom_name,omitempty"`
	// CompletedAt is an RFC 3339 timestamp, empty while the run is in flight.
	CompletedAt string `json:"completed_at,omitempty"`
}

// Clone returns a copy whose benchmark map is independent of the original.
func (e Envelope) Clone() Envelope {
	out := e
	out.Benchmarks = make(map[string]Result, len(e.Benchmarks))
	for k, v := range e.Benchmarks {
		out.Benchmarks[k] = v
	}
	return out
}

// round2 rounds to 2 decimal places, the precision used for all
// user-facing throughput and latency figures.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
