package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result contains the outcome of a timed tool invocation
type Result struct {
	Command    string
	Args       []string
	DurationMs int64
	Stdout     string
	Stderr     string
	ExitCode   int
	Err        error
	timedOut   bool
}

// Options configures tool execution
type Options struct {
	Dir     string        // Working directory
	Timeout time.Duration // Hard deadline; the process is killed on expiry (0 for none)
}

// Run executes an external measurement tool and captures its output.
// The returned Result is never nil; inspect NotInstalled and TimedOut
// before treating Err as a generic failure.
func Run(ctx context.Context, command string, args []string, opts *Options) *Result {
	if opts == nil {
		opts = &Options{}
	}

	result := &Result{
		Command: command,
		Args:    args,
	}

	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result.DurationMs = time.Since(start).Milliseconds()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if ctx.Err() == context.DeadlineExceeded {
		result.timedOut = true
	}

	if err != nil {
		result.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	return result
}

// Success returns true if the tool exited cleanly
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// NotInstalled returns true if the tool binary could not be found in PATH
func (r *Result) NotInstalled() bool {
	return r.Err != nil && errors.Is(r.Err, exec.ErrNotFound)
}

// TimedOut returns true if the invocation was killed by its deadline
func (r *Result) TimedOut() bool {
	return r.timedOut
}

// String returns a human-readable summary of the result
func (r *Result) String() string {
	status := "success"
	switch {
	case r.TimedOut():
		status = "timed out"
	case r.NotInstalled():
		status = "not installed"
	case !r.Success():
		status = fmt.Sprintf("failed (exit code %d)", r.ExitCode)
	}

	return fmt.Sprintf("%s %v: %s (%.3fs)",
		r.Command,
		r.Args,
		status,
		float64(r.DurationMs)/1000.0,
	)
}

// Handle tracks a helper process launched in the background, such as a
// loopback throughput server that exits on its own after one client.
type Handle struct {
	cmd  *exec.Cmd
	done chan error
}

// Start launches a background helper process. Output is discarded.
func Start(command string, args ...string) (*Handle, error) {
	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command, err)
	}

	h := &Handle{
		cmd:  cmd,
		done: make(chan error, 1),
	}
	go func() {
		h.done <- cmd.Wait()
	}()

	return h, nil
}

// WaitTimeout waits for the process to exit on its own, killing it if the
// timeout elapses first.
func (h *Handle) WaitTimeout(timeout time.Duration) error {
	select {
	case err := <-h.done:
		return err
	case <-time.After(timeout):
		_ = h.cmd.Process.Kill()
		<-h.done
		return fmt.Errorf("process %s did not exit within %s", h.cmd.Path, timeout)
	}
}
