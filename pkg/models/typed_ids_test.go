package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemID(t *testing.T) {
	id := NewItemID()

	parsed, err := ParseItemID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseItemID("not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid item ID")
}

func TestParseUserID(t *testing.T) {
	id := NewUserID()

	parsed, err := ParseUserID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseUserID("")
	require.Error(t, err)
}

func TestItemID_json(t *testing.T) {
	item := Item{
		ID:       NewItemID(),
		UserID:   NewUserID(),
		Name:     "Milk",
		Quantity: 2,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, item.ID.String(), raw["id"])
	assert.Equal(t, item.UserID.String(), raw["user_id"])
	assert.Equal(t, false, raw["is_completed"])
	assert.NotContains(t, raw, "user")

	var decoded Item
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, item.ID, decoded.ID)
	assert.Equal(t, item.UserID, decoded.UserID)
}

func TestItemID_cbor(t *testing.T) {
	id := NewItemID()

	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var decoded ItemID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	var wrongTable UserID
	err = cbor.Unmarshal(data, &wrongTable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected table users, got items")
}

func TestItemID_cbor_notATag(t *testing.T) {
	data, err := cbor.Marshal(uuid.New().String())
	require.NoError(t, err)

	var decoded ItemID
	err = cbor.Unmarshal(data, &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected CBOR tag")
}

func TestItemID_sql(t *testing.T) {
	var zero ItemID
	v, err := zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	id := NewItemID()
	v, err = id.Value()
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	var scanned ItemID
	require.NoError(t, scanned.Scan(id.String()))
	assert.Equal(t, id, scanned)

	require.NoError(t, scanned.Scan([]byte(id.String())))
	assert.Equal(t, id, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	require.Error(t, scanned.Scan(42))
}

func TestRecordID(t *testing.T) {
	itemID := NewItemID()
	rid := itemID.RecordID()
	assert.Equal(t, ItemsTable, rid.Table)
	assert.Equal(t, itemID.String(), rid.ID)

	userID := NewUserID()
	assert.Equal(t, UsersTable, userID.RecordID().Table)
}
