package store

import (
	"context"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects write operations while in read-only mode.
//
// The read-only state is determined dynamically by the isReadOnly function, so the
// application can toggle maintenance mode at runtime without recreating the store.
// Write operations return ErrReadOnly; reads pass through.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a new read-only wrapper for a store
func NewReadOnlyStore(store Store, isReadOnly func() bool) Store {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnlyStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.CreateUser(ctx, user)
}

func (r *ReadOnlyStore) CreateItem(ctx context.Context, owner models.UserID, in models.NewItem) (*models.Item, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateItem(ctx, owner, in)
}

func (r *ReadOnlyStore) UpdateItem(ctx context.Context, id models.ItemID, upd models.ItemUpdate) (*models.Item, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.UpdateItem(ctx, id, upd)
}

func (r *ReadOnlyStore) DeleteItem(ctx context.Context, id models.ItemID, owner models.UserID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteItem(ctx, id, owner)
}

func (r *ReadOnlyStore) ReorderItems(ctx context.Context, owner models.UserID, orders []models.ItemOrder) ([]*models.Item, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.ReorderItems(ctx, owner, orders)
}

// Migrate is a schema write and is rejected as well.
func (r *ReadOnlyStore) Migrate(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Migrate(ctx)
}
