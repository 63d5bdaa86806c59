//go:build integration

package gormstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/storetest"
)

// Run with: POSTGRES_DSN=postgres://... go test -tags integration ./pkg/store/gormstore
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T, cfg storetest.Config) store.Store {
		s, err := NewPostgresStore(dsn, WithClock(cfg.Clock), WithStrictReorder(cfg.StrictReorder))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Migrate(context.Background()))
		require.NoError(t, s.db.Exec("TRUNCATE items, users CASCADE").Error)
		return s
	})
}
