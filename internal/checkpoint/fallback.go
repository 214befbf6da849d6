package checkpoint

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Fallback wraps a durable Store and degrades to an in-process Memory store
// for the remainder of the process lifetime when the durable store fails.
// The switch is reported as a warning, not a failure, so an interview in
// flight can proceed; durability is lost until restart.
type Fallback struct {
	mu       sync.Mutex
	primary  Store
	memory   *Memory
	degraded bool
	logger   *zap.Logger
}

// NewFallback wraps primary.
func NewFallback(primary Store, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		primary: primary,
		memory:  NewMemory(),
		logger:  logger,
	}
}

// Primary exposes the wrapped durable store for callers that need
// store-specific operations (TTL inspection, purge).
func (f *Fallback) Primary() Store {
	return f.primary
}

// Degraded reports whether the store has switched to the in-process
// fallback.
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

func (f *Fallback) active() Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return f.memory
	}
	return f.primary
}

func (f *Fallback) degrade(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return
	}
	f.degraded = true
	f.logger.Warn("checkpoint store unavailable, falling back to in-memory checkpointing",
		zap.String("op", op), zap.Error(err))
}

// Put implements Store.
func (f *Fallback) Put(ctx context.Context, sessionID string, state []byte, ttl time.Duration) error {
	store := f.active()
	err := store.Put(ctx, sessionID, state, ttl)
	if err != nil && store != f.memory {
		f.degrade("put", err)
		return f.memory.Put(ctx, sessionID, state, ttl)
	}
	return err
}

// Get implements Store.
func (f *Fallback) Get(ctx context.Context, sessionID string) ([]byte, error) {
	store := f.active()
	state, err := store.Get(ctx, sessionID)
	if err != nil && store != f.memory && !errors.Is(err, ErrNotFound) {
		f.degrade("get", err)
		return f.memory.Get(ctx, sessionID)
	}
	return state, err
}

// ListActive implements Store.
func (f *Fallback) ListActive(ctx context.Context) ([]string, error) {
	store := f.active()
	ids, err := store.ListActive(ctx)
	if err != nil && store != f.memory {
		f.degrade("list", err)
		return f.memory.ListActive(ctx)
	}
	return ids, err
}

// Close implements Store.
func (f *Fallback) Close() error {
	return f.primary.Close()
}
