package executor

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/apprun/apprun/pkg/cancel"
	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/registry"
)

func quietLogger() *logging.Logger {
	log := logging.New(logging.ERROR, false)
	log.SetOutput(io.Discard)
	return log
}

func newTestExecutor(reg registry.Registry, config Config) *Executor {
	return New(reg, quietLogger(), config)
}

func TestExecuteSuccessCapturesStdout(t *testing.T) {
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{})

	outcome := exe.Execute(context.Background(), CommandSpec{
		Path:          "/bin/echo",
		Args:          []string{"hello", "world"},
		CorrelationID: "run-echo",
	})

	if !outcome.Succeeded {
		t.Fatalf("expected success, got error: %s", outcome.Error)
	}
	if outcome.Output != "hello world\n" {
		t.Errorf("expected captured stdout, got %q", outcome.Output)
	}
	if outcome.PID == 0 {
		t.Error("expected a recorded pid")
	}
	if !outcome.FinishedAt.After(outcome.StartedAt) {
		t.Error("expected FinishedAt after StartedAt")
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{})

	outcome := exe.Execute(context.Background(), CommandSpec{
		Path:          "/bin/sh",
		Args:          []string{"-c", "echo oops >&2; exit 3"},
		CorrelationID: "run-fail",
	})

	if outcome.Succeeded {
		t.Fatal("expected failure for non-zero exit")
	}
	if outcome.Error == "" {
		t.Fatal("expected a non-empty error description")
	}
	if !strings.Contains(outcome.Error, "oops") {
		t.Errorf("expected stderr in error, got %q", outcome.Error)
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{})

	outcome := exe.Execute(context.Background(), CommandSpec{
		Path:          "/nonexistent/binary",
		CorrelationID: "run-missing",
	})

	if outcome.Succeeded {
		t.Fatal("expected failure for missing binary")
	}
	if outcome.Error == "" {
		t.Fatal("expected a non-empty error description")
	}
	// A failed spawn never registers a pid.
	if _, err := reg.Get(context.Background(), "run-missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("expected no registry entry after spawn failure, got %v", err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{Timeout: 1 * time.Second, Grace: 100 * time.Millisecond})

	outcome := exe.Execute(context.Background(), CommandSpec{
		Path:          "/bin/sleep",
		Args:          []string{"30"},
		CorrelationID: "run-timeout",
	})

	if outcome.Succeeded {
		t.Fatal("expected failure on timeout")
	}
	if outcome.Error != TimedOutError {
		t.Errorf("expected error %q, got %q", TimedOutError, outcome.Error)
	}
	// The process must be gone once Execute returns.
	if err := syscall.Kill(outcome.PID, 0); err != syscall.ESRCH {
		t.Errorf("expected pid %d to be gone, kill(0) returned %v", outcome.PID, err)
	}
}

func TestExecuteRegistersPIDWhileRunning(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{})

	outcomeCh := make(chan int, 1)
	go func() {
		outcome := exe.Execute(ctx, CommandSpec{
			Path:          "/bin/sleep",
			Args:          []string{"1"},
			CorrelationID: "run-live",
		})
		outcomeCh <- outcome.PID
	}()

	// The registration races the spawn; poll until it lands.
	var pid int
	deadline := time.Now().Add(2 * time.Second)
	for {
		var err error
		pid, err = reg.Get(ctx, "run-live")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pid never appeared in registry while process was running")
		}
		time.Sleep(10 * time.Millisecond)
	}

	wantPID := <-outcomeCh
	if pid != wantPID {
		t.Errorf("registry pid %d does not match spawned pid %d", pid, wantPID)
	}

	// Natural completion clears the entry.
	if _, err := reg.Get(ctx, "run-live"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("expected entry cleared after completion, got %v", err)
	}
}

func TestConcurrentRunsKeepDistinctEntries(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{})

	var wg sync.WaitGroup
	pids := make([]int, 2)
	ids := []string{"run-a", "run-b"}

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			outcome := exe.Execute(ctx, CommandSpec{
				Path:          "/bin/sleep",
				Args:          []string{"1"},
				CorrelationID: id,
			})
			pids[i] = outcome.PID
		}(i, id)
	}

	// While both run, each id must resolve to its own pid.
	time.Sleep(300 * time.Millisecond)
	pidA, errA := reg.Get(ctx, "run-a")
	pidB, errB := reg.Get(ctx, "run-b")
	if errA != nil || errB != nil {
		t.Fatalf("expected both entries live, got %v / %v", errA, errB)
	}
	if pidA == pidB {
		t.Errorf("concurrent runs share pid %d in registry", pidA)
	}

	wg.Wait()
	if pids[0] != pidA || pids[1] != pidB {
		t.Errorf("registry entries clobbered: got (%d,%d), want (%d,%d)", pidA, pidB, pids[0], pids[1])
	}
}

// A cancellation racing the executor's own timeout must resolve cleanly on
// both sides: the run times out, and the cancel either succeeds or reports
// the process gone.
func TestTimeoutRacingCancellation(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewMemoryRegistry(time.Minute)
	exe := newTestExecutor(reg, Config{Timeout: 1 * time.Second, Grace: 100 * time.Millisecond})
	svc := cancel.NewService(reg, quietLogger())

	outcomeCh := make(chan string, 1)
	go func() {
		outcome := exe.Execute(ctx, CommandSpec{
			Path:          "/bin/sleep",
			Args:          []string{"2"},
			CorrelationID: "run-race",
		})
		outcomeCh <- outcome.Error
	}()

	// Fire the cancel right around the moment the ceiling expires.
	time.Sleep(1 * time.Second)
	_, err := svc.Cancel(ctx, "run-race")
	if err != nil && !errors.Is(err, cancel.ErrUnknownCorrelation) && !errors.Is(err, cancel.ErrProcessNotFound) {
		t.Errorf("cancel during timeout returned unexpected error: %v", err)
	}

	// Whichever side wins the race, the run resolves as a failure: the
	// ceiling ("Timed out") or the cancel's SIGTERM (signal exit).
	got := <-outcomeCh
	if got != TimedOutError && !strings.Contains(got, "terminated") {
		t.Errorf("expected timeout or signal failure, got %q", got)
	}
}
