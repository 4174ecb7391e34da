// Package cancel terminates a running launch identified only by its
// correlation id. It is deliberately decoupled from the executor: the two
// share nothing but the correlation registry, so a cancellation can be
// served by a different request, a different worker, or long after the
// originating executor's in-memory state is gone.
package cancel

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/registry"
)

var (
	// ErrUnknownCorrelation means the id has no live registry entry. The
	// caller cannot tell never-started, already-finished, and expired apart.
	ErrUnknownCorrelation = errors.New("unknown or expired correlation id")

	// ErrProcessNotFound means the id resolved to a pid the OS no longer
	// knows. The original process most likely already exited; its fate is
	// unknown to the caller.
	ErrProcessNotFound = errors.New("process not found")
)

// Service resolves correlation ids and signals the processes behind them
type Service struct {
	reg registry.Registry
	log *logging.Logger
}

// NewService creates a cancellation service backed by reg
func NewService(reg registry.Registry, log *logging.Logger) *Service {
	return &Service{
		reg: reg,
		log: log.WithComponent("cancel"),
	}
}

// Cancel resolves id to a pid and sends it a termination signal. On success
// it returns a confirmation naming the pid acted upon. It never silently
// succeeds against a process the OS no longer knows: a resolvable entry for
// a dead pid is reported as ErrProcessNotFound.
func (s *Service) Cancel(ctx context.Context, id string) (string, error) {
	pid, err := s.reg.Get(ctx, id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return "", fmt.Errorf("cannot cancel %s: %w", id, ErrUnknownCorrelation)
		}
		return "", fmt.Errorf("cannot resolve %s: %w", id, err)
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		s.log.Warn("entry for %s resolved to dead pid %d", id, pid)
		return "", fmt.Errorf("cannot cancel %s: pid %d: %w", id, pid, ErrProcessNotFound)
	}

	if err := proc.TerminateWithContext(ctx); err != nil {
		return "", fmt.Errorf("failed to signal pid %d for %s: %w", pid, id, err)
	}

	s.log.Info("sent termination signal to pid %d for %s", pid, id)
	return fmt.Sprintf("termination signal sent to process %d", pid), nil
}
