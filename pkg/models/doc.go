// Package models defines the domain entities of the shopping list application.
//
// Entities:
//
//   - [User]: the owner of a list. Users are created through the `user` command or the
//     API and looked up when an item is created.
//   - [Item]: one entry of a user's shopping list, with a display name, a quantity,
//     a completion flag and an order index.
//
// # Order Index
//
// Every item carries an [Item.OrderIndex]. For a single owner the indices form the
// contiguous range 0..n-1 after every create and delete; the ordering of one owner is
// independent of every other owner, so two users can both have an item at index 0.
// Maintaining that range is the job of the store implementations in
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store].
//
// # Typed IDs
//
// [UserID] and [ItemID] wrap a UUID and know their SurrealDB table. They marshal to a plain
// string in JSON, to a uuid column through database/sql and GORM, and to a SurrealDB
// RecordID through CBOR, so the same structs are used by every backend.
//
// # Request Shapes
//
// [NewItem], [ItemUpdate] and [ItemOrder] are the inputs of the create, update and
// reorder operations. Optional fields are pointers: nil means "not supplied".
//
// [Event] is what the change feed pushes after each successful write.
package models
