package models

// NewItem is the input of the create operation.
type NewItem struct {
	Name string `json:"name"`
	// Quantity defaults to DefaultQuantity when nil.
	Quantity *int `json:"quantity,omitempty"`
}

// QuantityOrDefault returns the requested quantity or DefaultQuantity.
func (n NewItem) QuantityOrDefault() int {
	if n.Quantity == nil {
		return DefaultQuantity
	}
	return *n.Quantity
}

// ItemUpdate is a partial update. Nil fields are left unchanged.
//
// There is no OrderIndex field: positions only change through
// delete and reorder.
type ItemUpdate struct {
	Name        *string `json:"name,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// IsEmpty reports whether no field is supplied.
func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Quantity == nil && u.IsCompleted == nil
}

// Apply copies the supplied fields onto item.
func (u ItemUpdate) Apply(item *Item) {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.IsCompleted != nil {
		item.IsCompleted = *u.IsCompleted
	}
}

// ItemOrder assigns a new order index to one item.
type ItemOrder struct {
	ID         ItemID `json:"id"`
	OrderIndex int    `json:"order_index"`
}

// Ptr returns a pointer to v. Handy for building NewItem and ItemUpdate values.
func Ptr[T any](v T) *T {
	return &v
}

// ReorderRequest is the body of the reorder route.
type ReorderRequest struct {
	ItemOrders []ItemOrder `json:"item_orders"`
}

// ReadOnlyState is the body of the read-only admin route.
type ReadOnlyState struct {
	ReadOnly bool `json:"read_only"`
}
