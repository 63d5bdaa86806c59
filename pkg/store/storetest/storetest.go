// Package storetest holds the behavioral test suite every
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store.Store] implementation must pass.
//
// Backends call [Run] from their own tests with a factory that builds a fresh, migrated,
// empty store:
//
//	func TestContract(t *testing.T) {
//		storetest.Run(t, func(t *testing.T, cfg storetest.Config) store.Store {
//			s, err := gormstore.NewSQLiteStore(":memory:", gormstore.WithClock(cfg.Clock))
//			require.NoError(t, err)
//			require.NoError(t, s.Migrate(context.Background()))
//			t.Cleanup(func() { s.Close() })
//			return s
//		})
//	}
package storetest

import (
	"sync"
	"time"
)

// Config is passed to the factory of a store under test.
type Config struct {
	// Clock must be used as the store's time source.
	Clock func() time.Time
	// StrictReorder enables the contiguity check on reorder.
	StrictReorder bool
}

// Clock is a manually driven time source. The zero value starts at a fixed instant.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	}
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	}
	c.now = c.now.Add(d)
}
