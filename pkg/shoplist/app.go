package shoplist

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/logger"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/gormstore"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store/surrealdb"
)

// Supported values of Config.Backend.
const (
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
)

// Config holds the settings shared by all commands.
type Config struct {
	// Backend selects the store: BackendPostgres, BackendSQLite or BackendSurrealDB.
	Backend string

	// Database configuration
	PostgresDSN string
	SQLitePath  string
	SurrealDB   surrealdb.Config

	// StrictReorder rejects reorders that leave gaps or duplicate indices.
	StrictReorder bool
	// ReadOnly starts the application with writes rejected.
	ReadOnly bool

	// Server configuration
	ServerPort string
	// CORSOrigins lists the browser origins allowed to call the API. Empty or "*" allows
	// every origin.
	CORSOrigins []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogFile   string
}

// App wires a store, a logger and the change feed together.
type App struct {
	store    store.Store
	config   *Config
	readOnly atomic.Bool
	events   *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
	logData  *logger.LogData
}

// New creates the logger, connects to the configured backend and wraps the store with
// read-only protection.
func New(ctx context.Context, config *Config) (*App, error) {
	logData, err := logger.New().
		FromBuffer(os.Stderr).
		FromPath(config.LogFile).
		WithLevel(config.LogLevel).
		WithFormat(config.LogFormat).
		Make()
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	appStore, err := openStore(ctx, config, logData.Logger)
	if err != nil {
		_ = logData.Close()
		return nil, err
	}

	app := NewWithStore(config, appStore, logData.Logger)
	app.logData = logData
	return app, nil
}

// NewWithStore creates an App around an already opened store. The App takes ownership
// of appStore and closes it in Close.
func NewWithStore(config *Config, appStore store.Store, log zerolog.Logger) *App {
	app := &App{
		config: config,
		log:    log,
		events: NewHub(log),
	}
	app.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     app.checkOrigin,
	}
	app.readOnly.Store(config.ReadOnly)
	app.store = store.NewReadOnlyStore(appStore, app.IsReadOnly)
	return app
}

func openStore(ctx context.Context, config *Config, log zerolog.Logger) (store.Store, error) {
	switch config.Backend {
	case BackendPostgres:
		s, err := gormstore.NewPostgresStore(config.PostgresDSN,
			gormstore.WithLogger(log),
			gormstore.WithStrictReorder(config.StrictReorder),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info().Msg("Connected to PostgreSQL")
		return s, nil
	case BackendSQLite:
		s, err := gormstore.NewSQLiteStore(config.SQLitePath,
			gormstore.WithLogger(log),
			gormstore.WithStrictReorder(config.StrictReorder),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		log.Info().Str("path", config.SQLitePath).Msg("Opened SQLite database")
		return s, nil
	case BackendSurrealDB:
		s, err := surrealdb.NewSurrealStore(ctx, config.SurrealDB,
			surrealdb.WithLogger(log),
			surrealdb.WithStrictReorder(config.StrictReorder),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		log.Info().Str("url", config.SurrealDB.URL).Msg("Connected to SurrealDB")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", config.Backend)
	}
}

// Close disconnects subscribers, closes the store and the log file.
func (a *App) Close() error {
	a.events.Close()
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.logData != nil {
		if cerr := a.logData.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Store returns the read-only protected store.
func (a *App) Store() store.Store {
	return a.store
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.log
}

// SetReadOnly switches maintenance mode on or off at runtime. While it is on, every
// write returns store.ErrReadOnly and reads keep working.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Info().Bool("read_only", readOnly).Msg("Application read-only mode changed")
}

// IsReadOnly reports whether writes are currently rejected. The store wrapper calls it on
// every write.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}

// getEnv returns the environment variable or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
