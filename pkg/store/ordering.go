package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// Clock returns the current time. Stores take one so tests can control timestamps.
type Clock func() time.Time

// Now normalizes the clock reading to what every backend can store: UTC with
// microsecond precision.
func (c Clock) Now() time.Time {
	if c == nil {
		c = time.Now
	}
	return c().UTC().Truncate(time.Microsecond)
}

// Touch returns the UpdatedAt value for a modification of a record last updated at prev.
// The result is strictly after prev even when the clock has not advanced.
func Touch(now, prev time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

// NextIndex returns the order index for a new item given the current maximum,
// nil meaning the owner has no items.
func NextIndex(max *int) int {
	if max == nil {
		return 0
	}
	return *max + 1
}

// ValidateNewItem checks a create request and returns the normalized item fields.
func ValidateNewItem(in models.NewItem) (name string, quantity int, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", 0, fmt.Errorf("%w: name must not be empty", ErrInvalidItem)
	}
	quantity = in.QuantityOrDefault()
	if quantity <= 0 {
		return "", 0, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidItem, quantity)
	}
	return name, quantity, nil
}

// ValidateUpdate checks the supplied fields of a partial update and returns it with the
// name trimmed.
func ValidateUpdate(upd models.ItemUpdate) (models.ItemUpdate, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return upd, fmt.Errorf("%w: name must not be empty", ErrInvalidItem)
		}
		upd.Name = &name
	}
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return upd, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidItem, *upd.Quantity)
	}
	return upd, nil
}

// ValidateOrders rejects negative indices. Ownership is checked by the backend.
func ValidateOrders(orders []models.ItemOrder) error {
	for _, o := range orders {
		if o.OrderIndex < 0 {
			return fmt.Errorf("%w: order index of %s is negative (%d)", ErrInvalidItem, o.ID, o.OrderIndex)
		}
	}
	return nil
}

// DistinctIDs returns the IDs of orders in request order with duplicates removed.
func DistinctIDs(orders []models.ItemOrder) []models.ItemID {
	seen := make(map[models.ItemID]struct{}, len(orders))
	ids := make([]models.ItemID, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.ID]; ok {
			continue
		}
		seen[o.ID] = struct{}{}
		ids = append(ids, o.ID)
	}
	return ids
}

// CheckContiguous returns ErrReorderNotContiguous unless the indices of items are
// exactly 0..len(items)-1.
func CheckContiguous(items []*models.Item) error {
	seen := make([]bool, len(items))
	for _, item := range items {
		i := item.OrderIndex
		if i < 0 || i >= len(items) || seen[i] {
			return fmt.Errorf("%w: index %d of item %s", ErrReorderNotContiguous, i, item.ID)
		}
		seen[i] = true
	}
	return nil
}

// SortItems orders items ascending by order index, ties broken by creation time.
func SortItems(items []*models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].OrderIndex != items[j].OrderIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
