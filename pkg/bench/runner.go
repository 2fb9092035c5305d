package bench

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/koaf/server-benchmark/pkg/sysinfo"
)

// RunHook observes a finished run, e.g. to export metrics.
type RunHook func(env Envelope, elapsed time.Duration)

// Runner sequences the sub-benchmarks, guards against overlapping runs and
// publishes live progress and partial results to concurrent pollers.
//
// Adapters are executed strictly in order: they contend for disk and
// network resources and would invalidate each other's measurements if
// overlapped.
type Runner struct {
	log        *slog.Logger
	collect    func() sysinfo.Info
	adapters   []Adapter
	runTimeout time.Duration

	// slot is the single-flight guard. TryAcquire is the atomic
	// check-and-set that prevents two concurrent start requests from
	// both observing Idle.
	slot *semaphore.Weighted

	tracker *Tracker
	hooks   []RunHook

	mu       sync.RWMutex
	running  bool
	envelope Envelope
}

// NewRunner wires a runner with the given adapters in execution order.
func NewRunner(log *slog.Logger, collect func() sysinfo.Info, adapters []Adapter, runTimeout time.Duration) *Runner {
	return &Runner{
		log:        log,
		collect:    collect,
		adapters:   adapters,
		runTimeout: runTimeout,
		slot:       semaphore.NewWeighted(1),
		tracker:    NewTracker(),
		envelope:   Envelope{Benchmarks: make(map[string]Result)},
	}
}

// OnComplete registers a hook fired after every finished run. Not safe to
// call once runs have started.
func (r *Runner) OnComplete(hook RunHook) {
	r.hooks = append(r.hooks, hook)
}

// Start launches a full benchmark run in the background. When a run is
// already active this is a no-op returning false; otherwise it returns
// true immediately while the run proceeds. done, if non-nil, receives the
// finished envelope before the runner transitions back to idle, so a
// poller that observes running=false is guaranteed the done callback (for
// example persistence) has already executed.
func (r *Runner) Start(customName string, done func(Envelope)) bool {
	if !r.slot.TryAcquire(1) {
		return false
	}

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	go func() {
		defer r.slot.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
		defer cancel()

		start := time.Now()
		env := r.runAll(ctx, customName)
		elapsed := time.Since(start)

		for _, hook := range r.hooks {
			hook(env, elapsed)
		}
		if done != nil {
			done(env)
		}

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	return true
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Progress returns a snapshot of the live progress state.
func (r *Runner) Progress() Progress {
	return r.tracker.Snapshot()
}

// Results returns a snapshot of the current envelope. While a run is
// active this contains the partial results accumulated so far.
func (r *Runner) Results() Envelope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.envelope.Clone()
}

// runAll executes the fixed benchmark sequence and returns the finished
// envelope. Adapter failures never abort the sequence; each result, error
// or not, lands in its own slot.
func (r *Runner) runAll(ctx context.Context, customName string) Envelope {
	r.tracker.Reset()

	env := Envelope{
		Benchmarks: make(map[string]Result, len(r.adapters)),
		CustomName: customName,
	}
	r.publish(env)

	r.log.Info("benchmark run started", "custom_name", customName)
	env.SystemInfo = r.collect()
	r.publish(env)
	r.tracker.Advance()

	status := func(message string) {
		r.tracker.SetMessage(message)
	}

	for _, adapter := range r.adapters {
		r.tracker.SetCurrent(adapter.Display(), "Testing "+adapter.Display()+" performance...")
		r.log.Info("running benchmark", "name", adapter.Name())

		result := adapter.Run(ctx, status)
		if result.Status == StatusError {
			r.log.Warn("benchmark failed", "name", adapter.Name(), "error", result.Err)
		}

		env.Benchmarks[adapter.Name()] = result
		r.publish(env)
		r.tracker.Advance()
	}

	env.CompletedAt = time.Now().Format(time.RFC3339)
	r.publish(env)
	r.tracker.Complete("All benchmarks completed!")
	r.log.Info("benchmark run finished")

	return env
}

// publish makes the current envelope state visible to pollers.
func (r *Runner) publish(env Envelope) {
	r.mu.Lock()
	r.envelope = env.Clone()
	r.mu.Unlock()
}
