// Package surrealdb implements [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store.Store]
// with native SurrealQL and no ORM.
//
// # Records
//
// Items live in the items table and owners in the users table. Record IDs are the typed IDs
// of [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models], so an item's user_id field
// is stored as a users:⟨uuid⟩ record link and compared with a RecordID parameter.
//
// # Transactions
//
// Every multi-step operation is sent as a single BEGIN TRANSACTION ... COMMIT TRANSACTION
// query. Domain failures are raised inside the transaction with THROW and a marker string,
// which cancels the whole transaction, and are mapped back to the store sentinel errors.
//
// SurrealDB transactions are optimistic: two concurrent transactions writing the same
// owner's items would make one of them fail on commit. The store therefore also serializes
// operations per owner with [store.OwnerLocks]. That lock is local to the process, so a
// deployment must run one application instance per database.
//
// # CBOR
//
// The connection uses the surrealcbor codec so time.Time and RecordID values round-trip in
// the format SurrealDB expects.
package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/logger"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

// Config holds the connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// SurrealStore implements store.Store on SurrealDB.
type SurrealStore struct {
	db            *surrealdb.DB
	locks         store.OwnerLocks
	clock         store.Clock
	strictReorder bool
	log           zerolog.Logger
}

var _ store.Store = (*SurrealStore)(nil)

// Option configures a SurrealStore.
type Option func(*SurrealStore)

// WithClock sets the time source for created_at and updated_at.
func WithClock(clock store.Clock) Option {
	return func(s *SurrealStore) {
		s.clock = clock
	}
}

// WithStrictReorder makes ReorderItems reject results whose indices are not 0..n-1.
func WithStrictReorder(strict bool) Option {
	return func(s *SurrealStore) {
		s.strictReorder = strict
	}
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *SurrealStore) {
		s.log = l
	}
}

// NewSurrealStore connects over WebSocket, signs in when credentials are given and selects
// the namespace and database.
func NewSurrealStore(ctx context.Context, cfg Config, opts ...Option) (*SurrealStore, error) {
	s := &SurrealStore{
		clock: time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec
	conf.Logger = logger.NewDriverLogger(s.log)

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	s.db = db
	return s, nil
}

func (s *SurrealStore) now() time.Time {
	return s.clock.Now()
}

const schemaQuery = `
DEFINE TABLE IF NOT EXISTS users SCHEMALESS;
DEFINE TABLE IF NOT EXISTS items SCHEMALESS;
DEFINE INDEX IF NOT EXISTS users_email ON users FIELDS email UNIQUE;
DEFINE INDEX IF NOT EXISTS items_user_order ON items FIELDS user_id, order_index;
`

// Migrate defines the tables and indexes. The unique index on users.email backs
// ErrUserExists. items_user_order is not unique.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, s.db, schemaQuery, nil); err != nil {
		return fmt.Errorf("failed to define schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// Helper to handle not found errors for surrealcbor store
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// Markers thrown from inside transactions.
const (
	thrownOwnerNotFound        = "shoplist:owner_not_found"
	thrownItemNotFound         = "shoplist:item_not_found"
	thrownItemNotFoundOrForbid = "shoplist:item_not_found_or_forbidden"
	thrownReorderForbidden     = "shoplist:reorder_forbidden"
)

// thrownErrors maps markers to sentinels. Longer markers come first because
// thrownItemNotFound is a prefix of thrownItemNotFoundOrForbid.
var thrownErrors = []struct {
	marker   string
	sentinel error
}{
	{thrownItemNotFoundOrForbid, store.ErrItemNotFoundOrForbidden},
	{thrownItemNotFound, store.ErrItemNotFound},
	{thrownOwnerNotFound, store.ErrOwnerNotFound},
	{thrownReorderForbidden, store.ErrReorderForbidden},
}

// mapThrown turns a THROW marker in err into the matching sentinel.
func mapThrown(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, t := range thrownErrors {
		if strings.Contains(msg, t.marker) {
			return t.sentinel
		}
	}
	return err
}

// lastResult returns the result of the last statement of a multi-statement query.
func lastResult[T any](res *[]surrealdb.QueryResult[T]) (T, error) {
	var zero T
	if res == nil || len(*res) == 0 {
		return zero, errors.New("query returned no results")
	}
	last := (*res)[len(*res)-1]
	if last.Error != nil {
		return zero, last.Error
	}
	return last.Result, nil
}

// User operations

func (s *SurrealStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.TrimSpace(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if user.Email == "" || user.Name == "" {
		return fmt.Errorf("%w: email and name are required", store.ErrInvalidUser)
	}
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := surrealdb.Create[models.User](ctx, s.db, user.ID.RecordID(), user)
	if err != nil {
		if strings.Contains(err.Error(), "already contains") {
			return fmt.Errorf("create user %s: %w", user.Email, store.ErrUserExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.ID.IsZero() {
		return nil, nil
	}
	return user, nil
}
