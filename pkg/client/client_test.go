package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/shoplist"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/gormstore"
)

func newTestServer(t *testing.T, opts ...gormstore.Option) (*Client, *shoplist.App) {
	t.Helper()
	s, err := gormstore.NewSQLiteStore(":memory:", opts...)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	app := shoplist.NewWithStore(&shoplist.Config{Backend: shoplist.BackendSQLite}, s, zerolog.Nop())
	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		_ = app.Close()
		srv.Close()
	})
	return NewClient(srv.URL + "/"), app
}

func names(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestClient_items(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestServer(t)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.False(t, health.ReadOnly)

	owner, err := c.CreateUser(ctx, "client@example.com", "Client")
	require.NoError(t, err)
	got, err := c.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Email, got.Email)

	items, err := c.ListItems(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	milk, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk", Quantity: models.Ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 0, milk.OrderIndex)
	assert.Equal(t, 2, milk.Quantity)
	eggs, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Eggs"})
	require.NoError(t, err)
	assert.Equal(t, 1, eggs.OrderIndex)

	updated, err := c.UpdateItem(ctx, owner.ID, eggs.ID, models.ItemUpdate{IsCompleted: models.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)

	fetched, err := c.GetItem(ctx, eggs.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsCompleted)

	items, err = c.ReorderItems(ctx, owner.ID, []models.ItemOrder{
		{ID: eggs.ID, OrderIndex: 0},
		{ID: milk.ID, OrderIndex: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs", "Milk"}, names(items))

	require.NoError(t, c.DeleteItem(ctx, owner.ID, eggs.ID))
	items, err = c.ListItems(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].OrderIndex)
}

func TestClient_errors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestServer(t)

	owner, err := c.CreateUser(ctx, "owner@example.com", "Owner")
	require.NoError(t, err)
	other, err := c.CreateUser(ctx, "other@example.com", "Other")
	require.NoError(t, err)
	item, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk"})
	require.NoError(t, err)

	_, err = c.GetUser(ctx, models.NewUserID())
	assert.True(t, IsNotFound(err))

	_, err = c.CreateItem(ctx, models.NewUserID(), models.NewItem{Name: "Milk"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "owner not found", apiErr.Message)

	_, err = c.CreateItem(ctx, owner.ID, models.NewItem{Name: ""})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = c.UpdateItem(ctx, other.ID, item.ID, models.ItemUpdate{Name: models.Ptr("Stolen")})
	assert.True(t, IsNotFound(err))

	err = c.DeleteItem(ctx, other.ID, item.ID)
	assert.True(t, IsNotFound(err))

	_, err = c.ReorderItems(ctx, other.ID, []models.ItemOrder{{ID: item.ID, OrderIndex: 0}})
	assert.True(t, IsForbidden(err))

	_, err = c.CreateUser(ctx, "owner@example.com", "Twin")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestClient_readOnly(t *testing.T) {
	ctx := context.Background()
	c, app := newTestServer(t)

	owner, err := c.CreateUser(ctx, "ro@example.com", "RO")
	require.NoError(t, err)

	require.NoError(t, c.SetReadOnly(ctx, true))
	readOnly, err := c.ReadOnly(ctx)
	require.NoError(t, err)
	assert.True(t, readOnly)
	assert.True(t, app.IsReadOnly())

	_, err = c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk"})
	assert.True(t, IsReadOnly(err))

	require.NoError(t, c.SetReadOnly(ctx, false))
	_, err = c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk"})
	assert.NoError(t, err)
}

func TestClient_movePending(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestServer(t)

	owner, err := c.CreateUser(ctx, "move@example.com", "Mover")
	require.NoError(t, err)
	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: name})
		require.NoError(t, err)
	}
	items, err := c.ListItems(ctx, owner.ID)
	require.NoError(t, err)
	_, err = c.UpdateItem(ctx, owner.ID, items[3].ID, models.ItemUpdate{IsCompleted: models.Ptr(true)})
	require.NoError(t, err)

	// Pending items are A B C; D is completed and keeps index 3.
	items, err = c.MovePending(ctx, owner.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A", "D"}, names(items))
	for i, item := range items {
		assert.Equal(t, i, item.OrderIndex)
	}

	_, err = c.MovePending(ctx, owner.ID, 0, 3)
	assert.Error(t, err)
}

func TestClient_movePendingAroundCompleted(t *testing.T) {
	for name, strict := range map[string]bool{"default": false, "strict": true} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c, _ := newTestServer(t, gormstore.WithStrictReorder(strict))

			owner, err := c.CreateUser(ctx, "middle@example.com", "Middle")
			require.NoError(t, err)
			var created []*models.Item
			for _, name := range []string{"A", "B", "C", "D"} {
				item, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: name})
				require.NoError(t, err)
				created = append(created, item)
			}
			_, err = c.UpdateItem(ctx, owner.ID, created[1].ID, models.ItemUpdate{IsCompleted: models.Ptr(true)})
			require.NoError(t, err)

			// Pending items are A C D; B is completed and moves behind them.
			items, err := c.MovePending(ctx, owner.ID, 2, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"D", "A", "C", "B"}, names(items))
			for i, item := range items {
				assert.Equal(t, i, item.OrderIndex)
			}
		})
	}
}

func TestClient_subscribe(t *testing.T) {
	c, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owner, err := c.CreateUser(ctx, "feed@example.com", "Feed")
	require.NoError(t, err)

	events, err := c.Subscribe(ctx, owner.ID)
	require.NoError(t, err)

	milk, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk"})
	require.NoError(t, err)
	bread, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Bread"})
	require.NoError(t, err)
	_, err = c.ReorderItems(ctx, owner.ID, []models.ItemOrder{
		{ID: bread.ID, OrderIndex: 0},
		{ID: milk.ID, OrderIndex: 1},
	})
	require.NoError(t, err)

	var got []models.Event
	for len(got) < 3 {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "feed closed early")
			got = append(got, ev)
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, models.EventCreated, got[0].Type)
	assert.Equal(t, milk.ID, got[0].Item.ID)
	assert.Equal(t, models.EventCreated, got[1].Type)
	assert.Equal(t, models.EventReordered, got[2].Type)
	assert.Equal(t, []string{"Bread", "Milk"}, names(got[2].Items))

	cancel()
	for range events {
	}
}

func TestClient_subscribeDialErrors(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Subscribe(context.Background(), models.UserID{})
	assert.Error(t, err)

	c = NewClient("ftp://example.com")
	_, err = c.Subscribe(context.Background(), models.NewUserID())
	assert.Error(t, err)
}
