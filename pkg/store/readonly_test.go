package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// countingStore records which methods reached it.
type countingStore struct {
	calls []string
}

func (s *countingStore) Migrate(context.Context) error {
	s.calls = append(s.calls, "Migrate")
	return nil
}

func (s *countingStore) Close() error {
	s.calls = append(s.calls, "Close")
	return nil
}

func (s *countingStore) CreateUser(context.Context, *models.User) error {
	s.calls = append(s.calls, "CreateUser")
	return nil
}

func (s *countingStore) GetUser(context.Context, models.UserID) (*models.User, error) {
	s.calls = append(s.calls, "GetUser")
	return nil, nil
}

func (s *countingStore) CreateItem(context.Context, models.UserID, models.NewItem) (*models.Item, error) {
	s.calls = append(s.calls, "CreateItem")
	return &models.Item{}, nil
}

func (s *countingStore) GetItem(context.Context, models.ItemID) (*models.Item, error) {
	s.calls = append(s.calls, "GetItem")
	return nil, nil
}

func (s *countingStore) ListItems(context.Context, models.UserID) ([]*models.Item, error) {
	s.calls = append(s.calls, "ListItems")
	return []*models.Item{}, nil
}

func (s *countingStore) UpdateItem(context.Context, models.ItemID, models.ItemUpdate) (*models.Item, error) {
	s.calls = append(s.calls, "UpdateItem")
	return &models.Item{}, nil
}

func (s *countingStore) DeleteItem(context.Context, models.ItemID, models.UserID) error {
	s.calls = append(s.calls, "DeleteItem")
	return nil
}

func (s *countingStore) ReorderItems(context.Context, models.UserID, []models.ItemOrder) ([]*models.Item, error) {
	s.calls = append(s.calls, "ReorderItems")
	return []*models.Item{}, nil
}

func exerciseStore(t *testing.T, s Store) []error {
	t.Helper()
	ctx := context.Background()
	owner := models.NewUserID()
	id := models.NewItemID()

	var errs []error
	errs = append(errs, s.Migrate(ctx))
	errs = append(errs, s.CreateUser(ctx, &models.User{}))
	_, err := s.CreateItem(ctx, owner, models.NewItem{Name: "Milk"})
	errs = append(errs, err)
	_, err = s.UpdateItem(ctx, id, models.ItemUpdate{})
	errs = append(errs, err)
	errs = append(errs, s.DeleteItem(ctx, id, owner))
	_, err = s.ReorderItems(ctx, owner, nil)
	errs = append(errs, err)

	_, err = s.GetUser(ctx, owner)
	require.NoError(t, err)
	_, err = s.GetItem(ctx, id)
	require.NoError(t, err)
	_, err = s.ListItems(ctx, owner)
	require.NoError(t, err)
	return errs
}

func TestReadOnlyStore(t *testing.T) {
	inner := &countingStore{}
	readOnly := true
	s := NewReadOnlyStore(inner, func() bool { return readOnly })

	for _, err := range exerciseStore(t, s) {
		assert.ErrorIs(t, err, ErrReadOnly)
	}
	assert.Equal(t, []string{"GetUser", "GetItem", "ListItems"}, inner.calls)

	inner.calls = nil
	readOnly = false
	for _, err := range exerciseStore(t, s) {
		assert.NoError(t, err)
	}
	assert.Len(t, inner.calls, 9)

	assert.Same(t, inner, s.(*ReadOnlyStore).Unwrap())
}
