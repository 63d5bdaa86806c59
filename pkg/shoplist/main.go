package shoplist

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Main is the entry point of the shoplist command. It parses args, creates the [App] and
// executes the selected command. The context cancels long running commands, and SIGINT or
// SIGTERM cancel it as well. Tests can call Main directly without building the binary.
//
// # Command Line Usage
//
//	shoplist [flags] migrate
//	shoplist [flags] user -email <email> -name <name>
//	shoplist [flags] run
//
// # Flags
//
//	-backend         postgres, sqlite or surrealdb (default postgres)
//	-port            HTTP port (default 8080)
//	-postgres-port   port used in the default PostgreSQL DSN (default 5432)
//	-sqlite-path     SQLite database file (default shoplist.db)
//	-read-only       start with writes rejected
//	-strict-reorder  reject reorders that leave gaps or duplicate positions
//	-log-level       debug, info, warn or error (default info)
//	-log-format      json or console (default json)
//	-log-file        append logs to this file instead of stderr
//	-cors-origins    comma-separated browser origins allowed to call the API (default *)
//
// # Environment Variables
//
// Flags take precedence over these variables. A .env file in the working directory is
// loaded first and never overrides variables that are already set.
//
//	SERVER_PORT      - HTTP port
//	CORS_ORIGINS     - comma-separated allowed origins (default: *)
//	POSTGRES_DSN     - PostgreSQL connection string
//	SQLITE_PATH      - SQLite database file
//	SURREALDB_URL    - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS     - SurrealDB namespace (default: shoplist)
//	SURREALDB_DB     - SurrealDB database (default: shoplist)
//	SURREALDB_USER   - SurrealDB username (default: root)
//	SURREALDB_PASS   - SurrealDB password (default: root)
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *UserCommand:
		if err := app.CreateOwner(ctx, c, os.Stdout); err != nil {
			return fmt.Errorf("user creation failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
