package bench

import "sync"

// totalSteps is the four sub-benchmarks plus the initialization step.
const totalSteps = 5

// Progress describes how far the active benchmark run has advanced. It is
// the payload polled by dashboard clients via /api/status.
type Progress struct {
	CurrentTest string `json:"current_test"`
	Progress    int    `json:"progress"`
	TotalTests  int    `json:"total_tests"`
	Message     string `json:"message"`
}

// Tracker is the single live progress instance per process. One writer (the
// active run) advances it while any number of pollers read snapshots.
type Tracker struct {
	mu sync.RWMutex
	p  Progress
}

// NewTracker returns a tracker in its pre-run state.
func NewTracker() *Tracker {
	return &Tracker{p: Progress{TotalTests: totalSteps}}
}

// Reset puts the tracker back to the start of a new run. This is the only
// operation that moves the counter backwards.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = Progress{
		CurrentTest: "Starting",
		Progress:    0,
		TotalTests:  totalSteps,
		Message:     "Initializing benchmark...",
	}
}

// SetCurrent records which sub-benchmark is active. Called before the
// adapter is invoked so pollers see the active test while it blocks.
func (t *Tracker) SetCurrent(test, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.CurrentTest = test
	t.p.Message = message
}

// SetMessage updates only the human-readable status line.
func (t *Tracker) SetMessage(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.Message = message
}

// Advance bumps the step counter by one. The counter never exceeds the
// total and never regresses within a run.
func (t *Tracker) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.p.Progress < t.p.TotalTests {
		t.p.Progress++
	}
}

// Complete marks the run finished and forces the counter to the total.
func (t *Tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.CurrentTest = "Completed"
	t.p.Progress = t.p.TotalTests
	t.p.Message = message
}

// Snapshot returns a consistent copy for pollers.
func (t *Tracker) Snapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.p
}
