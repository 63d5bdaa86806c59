package store

import (
	"context"
	"sync"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// OwnerLocks serializes work per owner inside one process.
//
// Backends without a row lock on the owner record use it around their
// read-then-write sequences. Entries are reference counted and removed when the
// last holder leaves, so the map only holds owners with work in flight.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[models.UserID]*ownerLock
}

type ownerLock struct {
	// ch has capacity one; holding the token means holding the lock.
	ch   chan struct{}
	refs int
}

// Lock blocks until the owner's lock is held or ctx is done.
// On success the returned function releases the lock.
func (l *OwnerLocks) Lock(ctx context.Context, owner models.UserID) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[models.UserID]*ownerLock)
	}
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{ch: make(chan struct{}, 1)}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	select {
	case ol.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(owner, ol)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ol.ch
			l.release(owner, ol)
		})
	}, nil
}

func (l *OwnerLocks) release(owner models.UserID, ol *ownerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ol.refs--
	if ol.refs == 0 {
		delete(l.locks, owner)
	}
}

// Len returns the number of owners with work in flight.
func (l *OwnerLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
