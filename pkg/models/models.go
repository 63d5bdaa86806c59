package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultQuantity is used when an item is created without a quantity.
const DefaultQuantity = 1

// User represents the owner of a shopping list.
type User struct {
	ID        UserID    `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// Item is a single shopping list entry.
//
// OrderIndex is maintained by the store: it is assigned on create, renumbered on delete and
// rewritten on reorder. Update never changes it.
type Item struct {
	ID          ItemID    `gorm:"type:uuid;primary_key" json:"id"`
	UserID      UserID    `gorm:"type:uuid;not null;index:idx_items_user_order,priority:1" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	IsCompleted bool      `gorm:"not null" json:"is_completed"`
	OrderIndex  int       `gorm:"not null;index:idx_items_user_order,priority:2" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID.IsZero() {
		i.ID = NewItemID()
	}
	return nil
}

// TableName keeps the table name stable across backends.
func (Item) TableName() string {
	return "items"
}
