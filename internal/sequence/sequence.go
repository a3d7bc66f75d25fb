package sequence

import (
	"context"
	"fmt"
)

// Domain keys for the counters collection. Movies and users draw from
// independent sequences.
const (
	MovieIDKey = "mlId"
	UserIDKey  = "userId"
)

// SeedFunc computes the initial "next" value for a counter that does not
// exist yet, e.g. (max existing mlId)+1.
type SeedFunc func(ctx context.Context) (int64, error)

// CounterStore is the narrow storage contract the allocator relies on.
// IncrementAndGet must be a single indivisible read-modify-write at the
// storage layer; InitIfAbsent must not overwrite an existing counter even
// when two initializers race.
type CounterStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	InitIfAbsent(ctx context.Context, key string, seed int64) error
}

// Allocator hands out monotonically increasing ids per domain key.
// Concurrent callers never observe the same value.
type Allocator struct {
	store CounterStore
}

func New(store CounterStore) *Allocator {
	return &Allocator{store: store}
}

// Next allocates the next id for the given domain. The allocated id is the
// counter value before the increment.
func (a *Allocator) Next(ctx context.Context, key string) (int64, error) {
	next, err := a.store.IncrementAndGet(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("sequence: allocate %q: %w", key, err)
	}
	return next - 1, nil
}

// EnsureInitialized creates the counter with seed() if it is missing.
// Safe to call repeatedly; an existing counter is left untouched. When two
// initializers race, the first insert wins and the loser's seed is discarded.
func (a *Allocator) EnsureInitialized(ctx context.Context, key string, seed SeedFunc) error {
	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("sequence: check %q: %w", key, err)
	}
	if exists {
		return nil
	}

	start, err := seed(ctx)
	if err != nil {
		return fmt.Errorf("sequence: seed %q: %w", key, err)
	}

	if err := a.store.InitIfAbsent(ctx, key, start); err != nil {
		return fmt.Errorf("sequence: init %q: %w", key, err)
	}
	return nil
}
