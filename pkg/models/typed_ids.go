package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// SurrealDB tables backing the typed IDs.
const (
	UsersTable = "users"
	ItemsTable = "items"
)

// recordIDTag is the CBOR tag SurrealDB uses for RecordID values.
const recordIDTag = 8

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: UsersTable,
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &u.uuid)
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID(UsersTable, u.uuid)
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, UsersTable, &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// ItemID is a typed ID for shopping list items
type ItemID struct {
	uuid uuid.UUID
}

func NewItemID() ItemID {
	return ItemID{uuid: uuid.New()}
}

func NewItemIDFromUUID(id uuid.UUID) ItemID {
	return ItemID{uuid: id}
}

func ParseItemID(s string) (ItemID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ItemID{}, fmt.Errorf("invalid item ID: %w", err)
	}
	return ItemID{uuid: id}, nil
}

func (i ItemID) UUID() uuid.UUID { return i.uuid }
func (i ItemID) String() string  { return i.uuid.String() }
func (i ItemID) IsZero() bool    { return i.uuid == uuid.Nil }

func (i ItemID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: ItemsTable,
		ID:    i.uuid.String(),
	}
}

func (i ItemID) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.uuid.String())
}

func (i *ItemID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &i.uuid)
}

func (i ItemID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID(ItemsTable, i.uuid)
}

func (i *ItemID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, ItemsTable, &i.uuid)
}

func (i ItemID) Value() (driver.Value, error) {
	if i.IsZero() {
		return nil, nil
	}
	return i.uuid.String(), nil
}

func (i *ItemID) Scan(value any) error {
	return scanUUID(value, &i.uuid)
}

func (ItemID) GormDataType() string { return "uuid" }

// Helper functions

func unmarshalJSONID(data []byte, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}

// scanUUID is a helper for implementing sql.Scanner interface for GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

func marshalCBORID(table string, id uuid.UUID) ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  recordIDTag,
		Content: []any{table, id.String()},
	})
}

// unmarshalCBORID decodes a SurrealDB RecordID, encoded as tag 8 wrapping [table, id].
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Major type 6 is a tag
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	if tag.Number != recordIDTag {
		return fmt.Errorf("expected RecordID tag (%d), got %d", recordIDTag, tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
