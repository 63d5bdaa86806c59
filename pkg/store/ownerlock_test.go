package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

func TestOwnerLocks_serializesOneOwner(t *testing.T) {
	var locks OwnerLocks
	owner := models.NewUserID()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), owner)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.Len())
}

func TestOwnerLocks_ownersAreIndependent(t *testing.T) {
	var locks OwnerLocks

	unlockA, err := locks.Lock(context.Background(), models.NewUserID())
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, models.NewUserID())
	require.NoError(t, err)
	unlockB()

	assert.Equal(t, 1, locks.Len())
}

func TestOwnerLocks_contextCancel(t *testing.T) {
	var locks OwnerLocks
	owner := models.NewUserID()

	unlock, err := locks.Lock(context.Background(), owner)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, owner)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	// Releasing twice is harmless.
	unlock()
	assert.Equal(t, 0, locks.Len())
}
