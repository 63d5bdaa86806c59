// Package store provides the persistence layer of the shoplist application.
//
// This package defines the [Store] interface, the Ordered Item Store: a collection of
// shopping list items partitioned by owner, where each owner's items carry an order index.
// Two implementations exist:
//
//   - [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/gormstore.GormStore]: GORM on
//     PostgreSQL or SQLite, serializing per-owner work with a row lock on the owner record
//   - [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/surrealdb.SurrealStore]:
//     native SurrealQL transactions without an ORM
//
// # Order Index Invariant
//
// For every owner, after every successful create and delete, the order indices of that
// owner's items are exactly 0..n-1 with no gaps or duplicates. Indices of different owners
// never interact.
//
//   - Create appends: the new item gets max+1, or 0 for an empty list.
//   - Delete closes the gap: every item of the owner with a greater index moves down by one.
//   - Update never touches the index.
//   - Reorder writes the indices supplied by the caller. The caller is trusted to send a
//     permutation, unless the store was built with strict reordering, in which case a result
//     that is not 0..n-1 is rejected with [ErrReorderNotContiguous].
//
// # Atomicity
//
// Create, delete and reorder are each one serialized unit per owner: they either apply fully
// or not at all, and two concurrent operations on one owner never interleave their
// read-then-write steps. Operations on different owners may run in parallel.
//
// # Errors
//
// Backends report domain failures with the sentinel errors in this package, usually wrapped
// with context. Callers test them with [errors.Is]. Get methods return nil without an error
// for missing records. List methods return empty slices, never nil.
package store

import (
	"context"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// Store is the Ordered Item Store.
type Store interface {
	// Migrate creates or upgrades the schema. It is idempotent.
	Migrate(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// CreateUser persists a new owner. A zero ID is generated.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser returns the owner, or nil if it does not exist.
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)

	// CreateItem appends a new item to the end of the owner's list.
	//
	// Returns ErrInvalidItem for an empty name or a non-positive quantity and
	// ErrOwnerNotFound when the owner does not exist.
	CreateItem(ctx context.Context, owner models.UserID, in models.NewItem) (*models.Item, error)

	// GetItem returns the item, or nil if it does not exist.
	GetItem(ctx context.Context, id models.ItemID) (*models.Item, error)

	// ListItems returns the owner's items ascending by order index.
	// An unknown owner yields an empty slice.
	ListItems(ctx context.Context, owner models.UserID) ([]*models.Item, error)

	// UpdateItem applies the supplied fields and refreshes UpdatedAt.
	// The order index is never changed.
	//
	// Returns ErrItemNotFound when no item has the ID and ErrInvalidItem for
	// invalid field values.
	UpdateItem(ctx context.Context, id models.ItemID, upd models.ItemUpdate) (*models.Item, error)

	// DeleteItem removes the item and shifts every later item of the owner down by one.
	//
	// Returns ErrItemNotFoundOrForbidden when the item does not exist or belongs to
	// another owner. Nothing is changed in that case.
	DeleteItem(ctx context.Context, id models.ItemID, owner models.UserID) error

	// ReorderItems writes the given indices in one batch and returns the owner's full list.
	//
	// Returns ErrReorderForbidden when any listed ID does not exist or belongs to another
	// owner, and ErrInvalidItem for negative indices. Nothing is changed on error.
	ReorderItems(ctx context.Context, owner models.UserID, orders []models.ItemOrder) ([]*models.Item, error)
}
