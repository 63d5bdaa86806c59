package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

// lockOwner takes the row lock on the owner's users row for the rest of tx.
// It reports false when the owner does not exist.
func lockOwner(tx *gorm.DB, owner models.UserID) (bool, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, "id = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock owner %s: %w", owner, err)
	}
	return true, nil
}

func listItems(db *gorm.DB, owner models.UserID) ([]*models.Item, error) {
	items := []*models.Item{}
	err := db.Where("user_id = ?", owner).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) CreateItem(ctx context.Context, owner models.UserID, in models.NewItem) (*models.Item, error) {
	name, quantity, err := store.ValidateNewItem(in)
	if err != nil {
		return nil, err
	}

	var item *models.Item
	err = s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := lockOwner(tx, owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("create item for %s: %w", owner, store.ErrOwnerNotFound)
		}

		var maxIndex *int
		err = tx.Model(&models.Item{}).
			Select("MAX(order_index)").
			Where("user_id = ?", owner).
			Row().Scan(&maxIndex)
		if err != nil {
			return fmt.Errorf("failed to read max order index: %w", err)
		}

		now := s.now()
		item = &models.Item{
			UserID:      owner,
			Name:        name,
			Quantity:    quantity,
			IsCompleted: false,
			OrderIndex:  store.NextIndex(maxIndex),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Create(item).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("owner", owner.String()).
		Str("item_id", item.ID.String()).
		Int("order_index", item.OrderIndex).
		Msg("item created")
	return item, nil
}

func (s *GormStore) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	var item models.Item
	err := s.getDB(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) ListItems(ctx context.Context, owner models.UserID) ([]*models.Item, error) {
	return listItems(s.getDB(ctx), owner)
}

func (s *GormStore) UpdateItem(ctx context.Context, id models.ItemID, upd models.ItemUpdate) (*models.Item, error) {
	upd, err := store.ValidateUpdate(upd)
	if err != nil {
		return nil, err
	}

	var item models.Item
	err = s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("update item %s: %w", id, store.ErrItemNotFound)
		}
		if err != nil {
			return err
		}

		upd.Apply(&item)
		item.UpdatedAt = store.Touch(s.now(), item.UpdatedAt)

		return tx.Model(&models.Item{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"name":         item.Name,
				"quantity":     item.Quantity,
				"is_completed": item.IsCompleted,
				"updated_at":   item.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) DeleteItem(ctx context.Context, id models.ItemID, owner models.UserID) error {
	var shifted int64
	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := lockOwner(tx, owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("delete item %s: %w", id, store.ErrItemNotFoundOrForbidden)
		}

		var item models.Item
		err = tx.Where("id = ? AND user_id = ?", id, owner).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("delete item %s: %w", id, store.ErrItemNotFoundOrForbidden)
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.Item{}, "id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Item{}).
			Where("user_id = ? AND order_index > ?", owner, item.OrderIndex).
			UpdateColumns(map[string]any{
				"order_index": gorm.Expr("order_index - 1"),
				"updated_at":  s.now(),
			})
		shifted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}

	s.log.Debug().
		Str("owner", owner.String()).
		Str("item_id", id.String()).
		Int64("shifted", shifted).
		Msg("item deleted")
	return nil
}

func (s *GormStore) ReorderItems(ctx context.Context, owner models.UserID, orders []models.ItemOrder) ([]*models.Item, error) {
	if err := store.ValidateOrders(orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return s.ListItems(ctx, owner)
	}

	var items []*models.Item
	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := lockOwner(tx, owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reorder items of %s: %w", owner, store.ErrReorderForbidden)
		}

		var count int64
		err = tx.Model(&models.Item{}).
			Where("id IN ? AND user_id = ?", store.DistinctIDs(orders), owner).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count != int64(len(orders)) {
			return fmt.Errorf("reorder items of %s: %w", owner, store.ErrReorderForbidden)
		}

		now := s.now()
		for _, o := range orders {
			res := tx.Model(&models.Item{}).
				Where("id = ? AND user_id = ?", o.ID, owner).
				UpdateColumns(map[string]any{
					"order_index": o.OrderIndex,
					"updated_at":  now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("reorder item %s: %w", o.ID, store.ErrReorderForbidden)
			}
		}

		items, err = listItems(tx, owner)
		if err != nil {
			return err
		}
		if s.strictReorder {
			return store.CheckContiguous(items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("owner", owner.String()).
		Int("moved", len(orders)).
		Msg("items reordered")
	return items, nil
}
