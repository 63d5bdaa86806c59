package models

import "time"

// EventType names the kind of change an Event reports.
type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventReordered EventType = "reordered"
)

// Event is one change to an owner's list, as pushed on the change feed.
//
// Created and updated events carry the item, deleted events the item ID and reordered
// events the owner's full list after the reorder.
type Event struct {
	Type   EventType `json:"type"`
	UserID UserID    `json:"user_id"`
	Item   *Item     `json:"item,omitempty"`
	ItemID *ItemID   `json:"item_id,omitempty"`
	Items  []*Item   `json:"items,omitempty"`
	At     time.Time `json:"at"`
}
