// Package registry maps client-visible correlation ids to the pids of
// running spawned processes. Entries expire after a fixed TTL so a
// forgotten run can never pin store memory; an expired id and a never
// registered id are indistinguishable on purpose.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a correlation entry stays resolvable. It matches
// the run timeout ceiling: once a run can no longer be alive, its entry is
// allowed to disappear.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by Get when the id was never registered or its
// entry already expired. Callers must treat both cases identically.
var ErrNotFound = errors.New("correlation id not found")

// Registry is the shared correlation store. Implementations must be safe
// for concurrent use; operations are atomic per key.
type Registry interface {
	// Put inserts or overwrites the mapping for id and resets its TTL.
	Put(ctx context.Context, id string, pid int) error

	// Get resolves id to a pid, or ErrNotFound.
	Get(ctx context.Context, id string) (int, error)

	// Del removes the entry for id. Removing a missing entry is not an error.
	Del(ctx context.Context, id string) error

	Close() error
}

// Config holds registry configuration
type Config struct {
	Type string // "redis" or "memory"
	TTL  time.Duration

	// Redis specific
	Addr     string
	Password string
	DB       int
}

// New creates a registry based on configuration
func New(config Config) (Registry, error) {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	switch config.Type {
	case "redis":
		return NewRedisRegistry(config)
	case "memory", "":
		return NewMemoryRegistry(config.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported registry type %q", config.Type)
	}
}
