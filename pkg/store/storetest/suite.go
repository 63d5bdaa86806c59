package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

// Factory builds a fresh, migrated and empty store.
type Factory func(t *testing.T, cfg Config) store.Store

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store store.Store
	clock *Clock
}

func newFixture(t *testing.T, factory Factory, strict bool) *fixture {
	t.Helper()
	clock := NewClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: factory(t, Config{Clock: clock.Now, StrictReorder: strict}),
		clock: clock,
	}
}

func (f *fixture) user(email string) models.UserID {
	f.t.Helper()
	u := &models.User{Email: email, Name: email}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	require.False(f.t, u.ID.IsZero())
	return u.ID
}

// items creates one item per name for owner, advancing the clock between creates.
func (f *fixture) items(owner models.UserID, names ...string) []*models.Item {
	f.t.Helper()
	created := make([]*models.Item, 0, len(names))
	for _, name := range names {
		item, err := f.store.CreateItem(f.ctx, owner, models.NewItem{Name: name})
		require.NoError(f.t, err)
		created = append(created, item)
		f.clock.Advance(time.Second)
	}
	return created
}

func (f *fixture) list(owner models.UserID) []*models.Item {
	f.t.Helper()
	items, err := f.store.ListItems(f.ctx, owner)
	require.NoError(f.t, err)
	require.NotNil(f.t, items)
	return items
}

func names(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func indices(items []*models.Item) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.OrderIndex
	}
	return out
}

// RequireContiguous fails the test unless the indices of items are exactly 0..n-1 in order.
func RequireContiguous(t *testing.T, items []*models.Item) {
	t.Helper()
	got := indices(items)
	sort.Ints(got)
	for i, idx := range got {
		require.Equal(t, i, idx, "order indices %v are not contiguous", got)
	}
}

// Run executes the suite. Each subtest gets its own store from factory.
func Run(t *testing.T, factory Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, factory) })
	t.Run("create", func(t *testing.T) { testCreate(t, factory) })
	t.Run("create validation", func(t *testing.T) { testCreateValidation(t, factory) })
	t.Run("owners are independent", func(t *testing.T) { testOwnerIsolation(t, factory) })
	t.Run("list", func(t *testing.T) { testList(t, factory) })
	t.Run("get item", func(t *testing.T) { testGetItem(t, factory) })
	t.Run("update", func(t *testing.T) { testUpdate(t, factory) })
	t.Run("update errors", func(t *testing.T) { testUpdateErrors(t, factory) })
	t.Run("delete", func(t *testing.T) { testDelete(t, factory) })
	t.Run("delete forbidden", func(t *testing.T) { testDeleteForbidden(t, factory) })
	t.Run("reorder", func(t *testing.T) { testReorder(t, factory) })
	t.Run("reorder forbidden", func(t *testing.T) { testReorderForbidden(t, factory) })
	t.Run("reorder edge cases", func(t *testing.T) { testReorderEdgeCases(t, factory) })
	t.Run("strict reorder", func(t *testing.T) { testStrictReorder(t, factory) })
	t.Run("concurrent creates", func(t *testing.T) { testConcurrentCreates(t, factory) })
	t.Run("concurrent create and delete", func(t *testing.T) { testConcurrentCreateDelete(t, factory) })
}

func testUsers(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)

	u := &models.User{Email: "ada@example.com", Name: "Ada"}
	require.NoError(t, f.store.CreateUser(f.ctx, u))

	got, err := f.store.GetUser(f.ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "Ada", got.Name)

	missing, err := f.store.GetUser(f.ctx, models.NewUserID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = f.store.CreateUser(f.ctx, &models.User{Email: " ", Name: "Nobody"})
	assert.ErrorIs(t, err, store.ErrInvalidUser)

	err = f.store.CreateUser(f.ctx, &models.User{Email: "ada@example.com", Name: "Ada again"})
	assert.Error(t, err)
}

func testCreate(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("create@example.com")

	milk, err := f.store.CreateItem(f.ctx, owner, models.NewItem{Name: "Milk"})
	require.NoError(t, err)
	assert.False(t, milk.ID.IsZero())
	assert.Equal(t, owner, milk.UserID)
	assert.Equal(t, "Milk", milk.Name)
	assert.Equal(t, 1, milk.Quantity)
	assert.False(t, milk.IsCompleted)
	assert.Equal(t, 0, milk.OrderIndex)
	assert.True(t, milk.CreatedAt.Equal(f.clock.Now()))
	assert.True(t, milk.UpdatedAt.Equal(milk.CreatedAt))

	f.clock.Advance(time.Second)
	eggs, err := f.store.CreateItem(f.ctx, owner, models.NewItem{Name: "Eggs", Quantity: models.Ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 1, eggs.OrderIndex)
	assert.Equal(t, 12, eggs.Quantity)

	f.items(owner, "Bread")
	items := f.list(owner)
	assert.Equal(t, []string{"Milk", "Eggs", "Bread"}, names(items))
	assert.Equal(t, []int{0, 1, 2}, indices(items))

	// Creating never touches existing rows.
	assert.True(t, items[0].UpdatedAt.Equal(milk.UpdatedAt))
}

func testCreateValidation(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("validate@example.com")

	_, err := f.store.CreateItem(f.ctx, owner, models.NewItem{Name: "   "})
	assert.ErrorIs(t, err, store.ErrInvalidItem)

	_, err = f.store.CreateItem(f.ctx, owner, models.NewItem{Name: "Milk", Quantity: models.Ptr(0)})
	assert.ErrorIs(t, err, store.ErrInvalidItem)

	stranger := models.NewUserID()
	_, err = f.store.CreateItem(f.ctx, stranger, models.NewItem{Name: "Milk"})
	assert.ErrorIs(t, err, store.ErrOwnerNotFound)

	assert.Empty(t, f.list(owner))
	assert.Empty(t, f.list(stranger))
}

func testOwnerIsolation(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")

	f.items(alice, "Milk", "Eggs")
	bobItems := f.items(bob, "Coffee")
	assert.Equal(t, 0, bobItems[0].OrderIndex)

	aliceItems := f.list(alice)
	require.NoError(t, f.store.DeleteItem(f.ctx, aliceItems[0].ID, alice))

	assert.Equal(t, []string{"Coffee"}, names(f.list(bob)))
	assert.Equal(t, []int{0}, indices(f.list(bob)))
	assert.Equal(t, []int{0}, indices(f.list(alice)))
}

func testList(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("list@example.com")

	items := f.list(owner)
	assert.Empty(t, items)

	unknown := f.list(models.NewUserID())
	assert.Empty(t, unknown)

	f.items(owner, "A", "B", "C")
	listed := f.list(owner)
	assert.Equal(t, []string{"A", "B", "C"}, names(listed))
	for _, item := range listed {
		assert.Equal(t, owner, item.UserID)
	}
}

func testGetItem(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("get@example.com")
	created := f.items(owner, "Milk")[0]

	got, err := f.store.GetItem(f.ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, "Milk", got.Name)

	missing, err := f.store.GetItem(f.ctx, models.NewItemID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testUpdate(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("update@example.com")
	created := f.items(owner, "Milk", "Eggs")
	eggs := created[1]

	// The clock does not move: UpdatedAt must still increase.
	updated, err := f.store.UpdateItem(f.ctx, eggs.ID, models.ItemUpdate{IsCompleted: models.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "Eggs", updated.Name)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, 1, updated.OrderIndex)
	assert.True(t, updated.UpdatedAt.After(eggs.UpdatedAt), "%s not after %s", updated.UpdatedAt, eggs.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(eggs.CreatedAt))

	again, err := f.store.UpdateItem(f.ctx, eggs.ID, models.ItemUpdate{Name: models.Ptr("Free range eggs"), Quantity: models.Ptr(6)})
	require.NoError(t, err)
	assert.Equal(t, "Free range eggs", again.Name)
	assert.Equal(t, 6, again.Quantity)
	assert.True(t, again.IsCompleted)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

	stored, err := f.store.GetItem(f.ctx, eggs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free range eggs", stored.Name)
	assert.Equal(t, 6, stored.Quantity)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, 1, stored.OrderIndex)
	assert.True(t, stored.UpdatedAt.Equal(again.UpdatedAt))

	// An empty update only refreshes the timestamp.
	touched, err := f.store.UpdateItem(f.ctx, eggs.ID, models.ItemUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Free range eggs", touched.Name)
	assert.True(t, touched.UpdatedAt.After(again.UpdatedAt))

	assert.Equal(t, []int{0, 1}, indices(f.list(owner)))
}

func testUpdateErrors(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("update-errors@example.com")
	milk := f.items(owner, "Milk")[0]

	_, err := f.store.UpdateItem(f.ctx, models.NewItemID(), models.ItemUpdate{IsCompleted: models.Ptr(true)})
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	_, err = f.store.UpdateItem(f.ctx, milk.ID, models.ItemUpdate{Name: models.Ptr("")})
	assert.ErrorIs(t, err, store.ErrInvalidItem)

	_, err = f.store.UpdateItem(f.ctx, milk.ID, models.ItemUpdate{Quantity: models.Ptr(-1)})
	assert.ErrorIs(t, err, store.ErrInvalidItem)

	stored, err := f.store.GetItem(f.ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", stored.Name)
	assert.Equal(t, 1, stored.Quantity)
	assert.True(t, stored.UpdatedAt.Equal(milk.UpdatedAt))
}

func testDelete(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("delete@example.com")
	created := f.items(owner, "A", "B", "C", "D", "E")

	require.NoError(t, f.store.DeleteItem(f.ctx, created[2].ID, owner))

	items := f.list(owner)
	assert.Equal(t, []string{"A", "B", "D", "E"}, names(items))
	assert.Equal(t, []int{0, 1, 2, 3}, indices(items))

	// Items before the gap are untouched, shifted items are refreshed.
	assert.True(t, items[0].UpdatedAt.Equal(created[0].UpdatedAt))
	assert.True(t, items[1].UpdatedAt.Equal(created[1].UpdatedAt))
	assert.False(t, items[2].UpdatedAt.Before(created[4].UpdatedAt))

	gone, err := f.store.GetItem(f.ctx, created[2].ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Deleting the last item shifts nothing.
	require.NoError(t, f.store.DeleteItem(f.ctx, created[4].ID, owner))
	assert.Equal(t, []string{"A", "B", "D"}, names(f.list(owner)))

	// Deleting the first item renumbers everything.
	require.NoError(t, f.store.DeleteItem(f.ctx, created[0].ID, owner))
	items = f.list(owner)
	assert.Equal(t, []string{"B", "D"}, names(items))
	assert.Equal(t, []int{0, 1}, indices(items))

	// The next create appends after the renumbered list.
	appended := f.items(owner, "F")[0]
	assert.Equal(t, 2, appended.OrderIndex)
}

func testDeleteForbidden(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	aliceItems := f.items(alice, "Milk", "Eggs")
	f.items(bob, "Coffee")

	err := f.store.DeleteItem(f.ctx, aliceItems[0].ID, bob)
	assert.ErrorIs(t, err, store.ErrItemNotFoundOrForbidden)

	err = f.store.DeleteItem(f.ctx, models.NewItemID(), alice)
	assert.ErrorIs(t, err, store.ErrItemNotFoundOrForbidden)

	err = f.store.DeleteItem(f.ctx, aliceItems[0].ID, models.NewUserID())
	assert.ErrorIs(t, err, store.ErrItemNotFoundOrForbidden)

	assert.Equal(t, []string{"Milk", "Eggs"}, names(f.list(alice)))
	assert.Equal(t, []string{"Coffee"}, names(f.list(bob)))
}

func testReorder(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("reorder@example.com")
	created := f.items(owner, "A", "B", "C")
	a, b, c := created[0], created[1], created[2]

	f.clock.Advance(time.Minute)
	items, err := f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{
		{ID: c.ID, OrderIndex: 0},
		{ID: a.ID, OrderIndex: 1},
		{ID: b.ID, OrderIndex: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(items))
	assert.Equal(t, []int{0, 1, 2}, indices(items))
	for _, item := range items {
		assert.True(t, item.UpdatedAt.Equal(f.clock.Now()), "updated_at of %s not refreshed", item.Name)
	}

	assert.Equal(t, []string{"C", "A", "B"}, names(f.list(owner)))

	// A partial payload swapping two items keeps the set contiguous.
	items, err = f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{
		{ID: a.ID, OrderIndex: 2},
		{ID: b.ID, OrderIndex: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, names(items))
}

func testReorderForbidden(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	alice := f.user("alice@example.com")
	bob := f.user("bob@example.com")
	aliceItems := f.items(alice, "Milk", "Eggs")
	bobItems := f.items(bob, "Coffee")

	cases := map[string][]models.ItemOrder{
		"foreign item": {
			{ID: aliceItems[1].ID, OrderIndex: 0},
			{ID: bobItems[0].ID, OrderIndex: 1},
		},
		"unknown item": {
			{ID: aliceItems[1].ID, OrderIndex: 0},
			{ID: models.NewItemID(), OrderIndex: 1},
		},
		"duplicate item": {
			{ID: aliceItems[1].ID, OrderIndex: 0},
			{ID: aliceItems[1].ID, OrderIndex: 1},
		},
	}
	for name, orders := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.ReorderItems(f.ctx, alice, orders)
			assert.ErrorIs(t, err, store.ErrReorderForbidden)

			assert.Equal(t, []string{"Milk", "Eggs"}, names(f.list(alice)))
			assert.Equal(t, []int{0, 1}, indices(f.list(alice)))
			assert.Equal(t, []int{0}, indices(f.list(bob)))
		})
	}

	_, err := f.store.ReorderItems(f.ctx, models.NewUserID(), []models.ItemOrder{{ID: aliceItems[0].ID, OrderIndex: 0}})
	assert.ErrorIs(t, err, store.ErrReorderForbidden)
}

func testReorderEdgeCases(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("edge@example.com")
	created := f.items(owner, "A", "B")

	items, err := f.store.ReorderItems(f.ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(items))
	assert.True(t, items[0].UpdatedAt.Equal(created[0].UpdatedAt))

	_, err = f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{{ID: created[0].ID, OrderIndex: -1}})
	assert.ErrorIs(t, err, store.ErrInvalidItem)

	// Without strict mode the caller is trusted, even with a duplicate index.
	items, err = f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{{ID: created[1].ID, OrderIndex: 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, indices(items))
}

func testStrictReorder(t *testing.T, factory Factory) {
	f := newFixture(t, factory, true)
	owner := f.user("strict@example.com")
	created := f.items(owner, "A", "B", "C")

	_, err := f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{{ID: created[2].ID, OrderIndex: 0}})
	assert.ErrorIs(t, err, store.ErrReorderNotContiguous)

	items := f.list(owner)
	assert.Equal(t, []string{"A", "B", "C"}, names(items))
	assert.Equal(t, []int{0, 1, 2}, indices(items))

	items, err = f.store.ReorderItems(f.ctx, owner, []models.ItemOrder{
		{ID: created[2].ID, OrderIndex: 0},
		{ID: created[0].ID, OrderIndex: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, names(items))
}

// testConcurrentCreates only checks the locking of backends that allow parallel
// transactions; a single-connection store passes it trivially.
func testConcurrentCreates(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("concurrent@example.com")
	other := f.user("other@example.com")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		for _, o := range []models.UserID{owner, other} {
			wg.Add(1)
			go func(i int, o models.UserID) {
				defer wg.Done()
				_, err := f.store.CreateItem(f.ctx, o, models.NewItem{Name: fmt.Sprintf("item-%d", i)})
				errs <- err
			}(i, o)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, o := range []models.UserID{owner, other} {
		items := f.list(o)
		require.Len(t, items, n)
		assert.Equal(t, n-1, items[n-1].OrderIndex)
		RequireContiguous(t, items)
	}
}

func testConcurrentCreateDelete(t *testing.T, factory Factory) {
	f := newFixture(t, factory, false)
	owner := f.user("mixed@example.com")
	created := f.items(owner, "1", "2", "3", "4", "5", "6", "7", "8", "9", "10")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id models.ItemID) {
			defer wg.Done()
			errs <- f.store.DeleteItem(f.ctx, id, owner)
		}(created[i*2].ID)
		go func(i int) {
			defer wg.Done()
			_, err := f.store.CreateItem(f.ctx, owner, models.NewItem{Name: fmt.Sprintf("new-%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items := f.list(owner)
	require.Len(t, items, 10)
	RequireContiguous(t, items)
}
