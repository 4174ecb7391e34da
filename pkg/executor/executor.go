// Package executor spawns external processes, bounds their runtime with a
// hard ceiling, and publishes their pids to the correlation registry so an
// unrelated request can cancel them later.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/models"
	"github.com/apprun/apprun/pkg/registry"
	"github.com/apprun/apprun/pkg/retry"
)

const (
	// DefaultTimeout is the hard runtime ceiling per run. It protects the
	// host from runaway processes; it is not a user-facing knob.
	DefaultTimeout = 24 * time.Hour

	// DefaultGrace is how long a process gets between SIGTERM and SIGKILL
	// when the ceiling fires.
	DefaultGrace = 10 * time.Second

	// TimedOutError is the exact error text recorded when the ceiling fires.
	TimedOutError = "Timed out"
)

// CommandSpec describes one process to spawn
type CommandSpec struct {
	Path          string
	Args          []string
	CorrelationID string
}

// Config tunes the executor; zero values fall back to defaults
type Config struct {
	Timeout time.Duration
	Grace   time.Duration
}

// Executor runs one external process per Execute call. Concurrent calls are
// independent; the registry is the only shared state between them.
type Executor struct {
	reg     registry.Registry
	log     *logging.Logger
	timeout time.Duration
	grace   time.Duration
}

// New creates an executor registering spawned pids in reg
func New(reg registry.Registry, log *logging.Logger, config Config) *Executor {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Grace <= 0 {
		config.Grace = DefaultGrace
	}
	return &Executor{
		reg:     reg,
		log:     log.WithComponent("executor"),
		timeout: config.Timeout,
		grace:   config.Grace,
	}
}

// Execute spawns the process described by spec and blocks until the first of
// natural exit, the runtime ceiling, or ctx cancellation. Every failure mode,
// including a failed spawn, is captured in the returned Outcome; Execute
// itself never fails.
func (e *Executor) Execute(ctx context.Context, spec CommandSpec) models.Outcome {
	outcome := models.Outcome{StartedAt: time.Now()}

	cmd := exec.Command(spec.Path, spec.Args...)
	// The process gets its own group so a termination signal reaches any
	// children it forks, and so killing it never touches our own group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		outcome.Error = fmt.Sprintf("failed to start %s: %v", spec.Path, err)
		outcome.FinishedAt = time.Now()
		e.log.Error("spawn failed for %s: %v", spec.CorrelationID, err)
		return outcome
	}

	pid := cmd.Process.Pid
	outcome.PID = pid
	e.log.Info("started %s (pid %d) for %s", spec.Path, pid, spec.CorrelationID)

	// Publish the pid before awaiting completion so a racing cancellation
	// request can resolve it. If the process exits first the entry is merely
	// stale; if the registry is down we log and keep running, since losing
	// cancellability must never abort an already-spawned process.
	if err := retry.Do(ctx, retry.Fast(), func() error {
		return e.reg.Put(ctx, spec.CorrelationID, pid)
	}); err != nil {
		e.log.Warn("failed to register pid %d for %s, run is not cancellable: %v", pid, spec.CorrelationID, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		outcome.FinishedAt = time.Now()
		outcome.Output = stdout.String()
		if err != nil {
			outcome.Error = exitError(err, stderr.String())
			e.log.Info("run %s failed: %s", spec.CorrelationID, outcome.Error)
		} else {
			outcome.Succeeded = true
			e.log.Info("run %s completed (pid %d)", spec.CorrelationID, pid)
		}
	case <-timer.C:
		e.log.Warn("run %s exceeded %s ceiling, terminating pid %d", spec.CorrelationID, e.timeout, pid)
		e.terminate(pid, done)
		outcome.FinishedAt = time.Now()
		outcome.Output = stdout.String()
		outcome.Error = TimedOutError

	case <-ctx.Done():
		e.log.Warn("run %s cancelled by caller, terminating pid %d", spec.CorrelationID, pid)
		e.terminate(pid, done)
		outcome.FinishedAt = time.Now()
		outcome.Output = stdout.String()
		outcome.Error = fmt.Sprintf("run aborted: %v", ctx.Err())
	}

	// The entry is only a hint for cancellation; clear it so a dead pid
	// cannot stay resolvable until TTL expiry. Best effort: on failure the
	// TTL still bounds the entry's lifetime.
	if err := e.reg.Del(context.Background(), spec.CorrelationID); err != nil {
		e.log.Warn("failed to clear registry entry for %s: %v", spec.CorrelationID, err)
	}

	return outcome
}

// terminate signals the process group and reaps the process. SIGTERM first;
// SIGKILL once the grace period runs out. Signalling an already-exited
// process is a harmless no-op.
func (e *Executor) terminate(pid int, done <-chan error) {
	target := pid
	if pgid, err := syscall.Getpgid(pid); err == nil {
		target = -pgid
	}

	if err := syscall.Kill(target, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		e.log.Warn("SIGTERM to %d failed: %v", target, err)
	}

	select {
	case <-done:
		return
	case <-time.After(e.grace):
	}

	if err := syscall.Kill(target, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		e.log.Warn("SIGKILL to %d failed: %v", target, err)
	}
	<-done
}

// exitError builds a non-empty failure description from the wait error and
// whatever the process wrote to stderr.
func exitError(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, stderr)
}
