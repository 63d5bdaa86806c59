// Package shoplist provides the application layer of a shared shopping list service:
// configuration, commands, the HTTP API and the change feed on top of
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store.Store].
//
// Every item belongs to an owner and has a position in that owner's list. Positions are
// kept contiguous by the store, so clients can render the list in order and move items by
// sending new positions.
//
// # Getting Started
//
// The application provides a command-line interface for running the server, migrating the
// schema and registering owners. For detailed usage information, see
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/shoplist.Main].
//
// For API endpoint documentation, see
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/shoplist.App.Router].
//
// # Backends
//
//   - postgres: PostgreSQL through GORM. Set POSTGRES_DSN or -postgres-port.
//   - sqlite: a local SQLite file through GORM. Set SQLITE_PATH or -sqlite-path.
//   - surrealdb: SurrealDB over WebSocket. Set SURREALDB_URL, SURREALDB_NS, SURREALDB_DB,
//     SURREALDB_USER and SURREALDB_PASS.
//
// # Basic Usage
//
//	# Create the schema
//	shoplist -backend sqlite migrate
//
//	# Register an owner and note the printed ID
//	shoplist -backend sqlite user -email ada@example.com -name Ada
//
//	# Serve the API on :8080
//	shoplist -backend sqlite run
//
//	# Add and list items
//	curl -X POST localhost:8080/api/users/$OWNER/items -d '{"name":"Milk","quantity":2}'
//	curl localhost:8080/api/users/$OWNER/items
//
// Variables may also be placed in a .env file in the working directory.
package shoplist
