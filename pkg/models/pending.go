package models

import (
	"fmt"
	"sort"
)

// PendingItems returns the items that are not completed, ascending by OrderIndex.
// The input slice is not modified.
func PendingItems(items []*Item) []*Item {
	return filterSorted(items, false)
}

// CompletedItems returns the completed items, ascending by OrderIndex.
// The input slice is not modified.
func CompletedItems(items []*Item) []*Item {
	return filterSorted(items, true)
}

func filterSorted(items []*Item, completed bool) []*Item {
	out := make([]*Item, 0, len(items))
	for _, item := range items {
		if item.IsCompleted == completed {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// MovePending moves the pending item at position from to position to and returns the
// reorder payload for the whole list.
//
// Positions count pending items only. Pending items are numbered 0..p-1 in their new
// order and completed items follow as p..n-1 in their current order, so the payload
// always leaves the list contiguous.
func MovePending(items []*Item, from, to int) ([]ItemOrder, error) {
	pending := PendingItems(items)
	if from < 0 || from >= len(pending) {
		return nil, fmt.Errorf("move source %d out of range [0,%d)", from, len(pending))
	}
	if to < 0 || to >= len(pending) {
		return nil, fmt.Errorf("move target %d out of range [0,%d)", to, len(pending))
	}

	moved := pending[from]
	pending = append(pending[:from], pending[from+1:]...)
	pending = append(pending[:to], append([]*Item{moved}, pending[to:]...)...)

	ordered := append(pending, CompletedItems(items)...)
	orders := make([]ItemOrder, len(ordered))
	for i, item := range ordered {
		orders[i] = ItemOrder{ID: item.ID, OrderIndex: i}
	}
	return orders, nil
}
