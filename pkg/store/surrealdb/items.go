package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

const listItemsQuery = `SELECT * FROM items WHERE user_id = $owner ORDER BY order_index ASC, created_at ASC;`

const createItemQuery = `
BEGIN TRANSACTION;
LET $user = (SELECT VALUE id FROM $owner);
IF array::len($user) == 0 { THROW "` + thrownOwnerNotFound + `" };
LET $last = (SELECT VALUE order_index FROM items WHERE user_id = $owner ORDER BY order_index DESC LIMIT 1);
LET $next = IF array::len($last) == 0 { 0 } ELSE { $last[0] + 1 };
CREATE ONLY $id CONTENT {
	user_id: $owner,
	name: $name,
	quantity: $quantity,
	is_completed: false,
	order_index: $next,
	created_at: $now,
	updated_at: $now
};
COMMIT TRANSACTION;
`

const deleteItemQuery = `
BEGIN TRANSACTION;
LET $found = (SELECT VALUE order_index FROM $id WHERE user_id = $owner);
IF array::len($found) == 0 { THROW "` + thrownItemNotFoundOrForbid + `" };
DELETE $id;
UPDATE items SET order_index -= 1, updated_at = $now WHERE user_id = $owner AND order_index > $found[0];
COMMIT TRANSACTION;
`

// updateItemQuery is completed with the SET assignments of the supplied fields.
const updateItemQuery = `
BEGIN TRANSACTION;
LET $found = (SELECT VALUE updated_at FROM $id);
IF array::len($found) == 0 { THROW "` + thrownItemNotFound + `" };
LET $updated = IF $found[0] >= $now { $found[0] + 1us } ELSE { $now };
UPDATE ONLY $id SET %s;
COMMIT TRANSACTION;
`

const reorderItemsQuery = `
BEGIN TRANSACTION;
LET $owned = (SELECT VALUE id FROM items WHERE id INSIDE $ids AND user_id = $owner);
IF array::len($owned) != $expected { THROW "` + thrownReorderForbidden + `" };
FOR $o IN $orders {
	UPDATE $o.id SET order_index = $o.order_index, updated_at = $now WHERE user_id = $owner;
};
SELECT * FROM items WHERE user_id = $owner ORDER BY order_index ASC, created_at ASC;
COMMIT TRANSACTION;
`

func (s *SurrealStore) CreateItem(ctx context.Context, owner models.UserID, in models.NewItem) (*models.Item, error) {
	name, quantity, err := store.ValidateNewItem(in)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	id := models.NewItemID()
	res, err := surrealdb.Query[*models.Item](ctx, s.db, createItemQuery, map[string]any{
		"owner":    owner.RecordID(),
		"id":       id.RecordID(),
		"name":     name,
		"quantity": quantity,
		"now":      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item for %s: %w", owner, mapThrown(err))
	}
	item, err := lastResult(res)
	if err != nil {
		return nil, fmt.Errorf("create item for %s: %w", owner, err)
	}
	if item == nil {
		return nil, fmt.Errorf("create item for %s: no record returned", owner)
	}

	s.log.Debug().
		Str("owner", owner.String()).
		Str("item_id", item.ID.String()).
		Int("order_index", item.OrderIndex).
		Msg("item created")
	return item, nil
}

func (s *SurrealStore) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	item, err := surrealdb.Select[models.Item](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil || item.ID.IsZero() {
		return nil, nil
	}
	return item, nil
}

func (s *SurrealStore) ListItems(ctx context.Context, owner models.UserID) ([]*models.Item, error) {
	res, err := surrealdb.Query[[]*models.Item](ctx, s.db, listItemsQuery, map[string]any{
		"owner": owner.RecordID(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := lastResult(res)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	store.SortItems(items)
	return items, nil
}

func (s *SurrealStore) UpdateItem(ctx context.Context, id models.ItemID, upd models.ItemUpdate) (*models.Item, error) {
	upd, err := store.ValidateUpdate(upd)
	if err != nil {
		return nil, err
	}

	params := map[string]any{
		"id":  id.RecordID(),
		"now": s.now(),
	}
	set := []string{"updated_at = $updated"}
	if upd.Name != nil {
		set = append(set, "name = $name")
		params["name"] = *upd.Name
	}
	if upd.Quantity != nil {
		set = append(set, "quantity = $quantity")
		params["quantity"] = *upd.Quantity
	}
	if upd.IsCompleted != nil {
		set = append(set, "is_completed = $is_completed")
		params["is_completed"] = *upd.IsCompleted
	}

	query := fmt.Sprintf(updateItemQuery, strings.Join(set, ", "))
	res, err := surrealdb.Query[*models.Item](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", id, mapThrown(err))
	}
	item, err := lastResult(res)
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}
	if item == nil {
		return nil, fmt.Errorf("update item %s: %w", id, store.ErrItemNotFound)
	}
	return item, nil
}

func (s *SurrealStore) DeleteItem(ctx context.Context, id models.ItemID, owner models.UserID) error {
	unlock, err := s.locks.Lock(ctx, owner)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = surrealdb.Query[any](ctx, s.db, deleteItemQuery, map[string]any{
		"id":    id.RecordID(),
		"owner": owner.RecordID(),
		"now":   s.now(),
	})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, mapThrown(err))
	}

	s.log.Debug().
		Str("owner", owner.String()).
		Str("item_id", id.String()).
		Msg("item deleted")
	return nil
}

func (s *SurrealStore) ReorderItems(ctx context.Context, owner models.UserID, orders []models.ItemOrder) ([]*models.Item, error) {
	if err := store.ValidateOrders(orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return s.ListItems(ctx, owner)
	}

	unlock, err := s.locks.Lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.strictReorder {
		if err := s.checkReorderContiguous(ctx, owner, orders); err != nil {
			return nil, err
		}
	}

	ids := store.DistinctIDs(orders)
	rids := make([]any, len(ids))
	for i, id := range ids {
		rids[i] = id.RecordID()
	}
	payload := make([]map[string]any, len(orders))
	for i, o := range orders {
		payload[i] = map[string]any{
			"id":          o.ID.RecordID(),
			"order_index": o.OrderIndex,
		}
	}

	res, err := surrealdb.Query[[]*models.Item](ctx, s.db, reorderItemsQuery, map[string]any{
		"owner":    owner.RecordID(),
		"ids":      rids,
		"expected": len(orders),
		"orders":   payload,
		"now":      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("reorder items of %s: %w", owner, mapThrown(err))
	}
	items, err := lastResult(res)
	if err != nil {
		return nil, fmt.Errorf("reorder items of %s: %w", owner, err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	store.SortItems(items)

	s.log.Debug().
		Str("owner", owner.String()).
		Int("moved", len(orders)).
		Msg("items reordered")
	return items, nil
}

// checkReorderContiguous applies orders to the current list in memory and rejects a result
// that is not 0..n-1. The caller holds the owner lock, so the list cannot change before the
// reorder transaction runs. Unknown IDs are left for the transaction to reject.
func (s *SurrealStore) checkReorderContiguous(ctx context.Context, owner models.UserID, orders []models.ItemOrder) error {
	current, err := s.ListItems(ctx, owner)
	if err != nil {
		return err
	}

	byID := make(map[models.ItemID]*models.Item, len(current))
	projected := make([]*models.Item, len(current))
	for i, item := range current {
		clone := *item
		projected[i] = &clone
		byID[item.ID] = &clone
	}
	for _, o := range orders {
		item, ok := byID[o.ID]
		if !ok {
			return nil
		}
		item.OrderIndex = o.OrderIndex
	}
	return store.CheckContiguous(projected)
}
