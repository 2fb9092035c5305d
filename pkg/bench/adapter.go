package bench

import "context"

// StatusFunc lets an adapter publish a human-readable status line while it
// runs, e.g. "Preparing test files...".
type StatusFunc func(message string)

// Adapter wraps one external measurement tool and normalizes its output
// into a Result. Adapters never return Go errors: a failed measurement is
// still a Result, so one missing tool cannot abort the rest of the run.
type Adapter interface {
	// Name is the envelope key for this sub-benchmark, e.g. "cpu".
	Name() string

	// Display is the human-facing name shown in progress, e.g. "CPU".
	Display() string

	// Run executes the measurement. The context carries the global
	// run deadline; individual tool invocations add their own.
	Run(ctx context.Context, status StatusFunc) Result
}
