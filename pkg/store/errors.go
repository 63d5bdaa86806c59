package store

import "errors"

var (
	// ErrOwnerNotFound is returned by create when the owner does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrItemNotFound is returned by update when no item has the given ID.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotFoundOrForbidden is returned by delete. A missing item and an item of
	// another owner are reported identically.
	ErrItemNotFoundOrForbidden = errors.New("item not found or does not belong to the user")

	// ErrReorderForbidden is returned by reorder when some items are missing or owned by
	// someone else.
	ErrReorderForbidden = errors.New("some items not found or do not belong to the user")

	// ErrReorderNotContiguous is returned by strict reorder when the resulting indices are
	// not exactly 0..n-1.
	ErrReorderNotContiguous = errors.New("reorder would leave order indices non-contiguous")

	// ErrInvalidItem is returned for an empty name, a non-positive quantity or a negative
	// order index.
	ErrInvalidItem = errors.New("invalid item")

	// ErrReadOnly is returned by the read-only wrapper for write operations.
	ErrReadOnly = errors.New("operation denied: application is in read-only mode")
)

var (
	// ErrInvalidUser is returned for a user without email or name.
	ErrInvalidUser = errors.New("invalid user")

	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user with this email already exists")
)
