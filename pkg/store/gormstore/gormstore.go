// Package gormstore implements [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store.Store]
// on GORM.
//
// The same code serves two dialects:
//   - PostgreSQL through gorm.io/driver/postgres, the production backend
//   - SQLite through gorm.io/driver/sqlite, for local single-user setups and tests
//
// # Per-owner serialization
//
// Create, delete and reorder run inside db.Transaction and start by taking a row lock on the
// owner's users row (SELECT ... FOR UPDATE). Two operations on the same owner therefore
// queue behind each other for the whole read-then-write sequence, while different owners
// proceed in parallel. Update locks the item row instead.
//
// SQLite has no row locks and the dialect drops the locking clause. The SQLite store limits
// the pool to one connection, which serializes every transaction in the process. Code running
// inside a transaction must only use the transaction handle or it would wait for the single
// connection forever.
//
// # Timestamps
//
// CreatedAt and UpdatedAt come from the store's [store.Clock], not from the database, and
// are written explicitly with UpdateColumns so GORM never substitutes its own time.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

// GormStore implements store.Store using GORM.
type GormStore struct {
	db            *gorm.DB
	clock         store.Clock
	strictReorder bool
	log           zerolog.Logger
}

var _ store.Store = (*GormStore)(nil)

// Option configures a GormStore.
type Option func(*GormStore)

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(clock store.Clock) Option {
	return func(s *GormStore) {
		s.clock = clock
	}
}

// WithStrictReorder makes ReorderItems reject results whose indices are not 0..n-1.
func WithStrictReorder(strict bool) Option {
	return func(s *GormStore) {
		s.strictReorder = strict
	}
}

// WithLogger routes store and GORM logs to l.
func WithLogger(l zerolog.Logger) Option {
	return func(s *GormStore) {
		s.log = l
	}
}

// NewPostgresStore connects to PostgreSQL.
func NewPostgresStore(dsn string, opts ...Option) (*GormStore, error) {
	s, err := open(postgres.Open(dsn), opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return s, nil
}

// NewSQLiteStore opens the SQLite database at path. ":memory:" gives a private in-memory
// database that lives as long as the store.
func NewSQLiteStore(path string, opts ...Option) (*GormStore, error) {
	s, err := open(sqlite.Open(path), opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return s, nil
}

func open(dialector gorm.Dialector, opts []Option) (*GormStore, error) {
	s := &GormStore{
		clock: time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(s.log),
		NowFunc:        s.now,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return s, nil
}

func (s *GormStore) now() time.Time {
	return s.clock.Now()
}

// getDB returns the database connection
func (s *GormStore) getDB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Migrate creates the users and items tables with their indexes using AutoMigrate.
// It only adds schema elements and is safe to run repeatedly.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.getDB(ctx).AutoMigrate(&models.User{}, &models.Item{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// User operations

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.TrimSpace(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if user.Email == "" || user.Name == "" {
		return fmt.Errorf("%w: email and name are required", store.ErrInvalidUser)
	}

	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := s.getDB(ctx).Create(user).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("create user %s: %w", user.Email, store.ErrUserExists)
	}
	return err
}

// isDuplicateKey reports a unique constraint violation, whether or not the dialect
// translated it to gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func (s *GormStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.getDB(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
