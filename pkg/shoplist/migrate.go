package shoplist

import (
	"context"
	"fmt"
	"io"
)

// Migrate creates or upgrades the schema of the configured backend. It only adds missing
// tables and indexes and may be run any number of times.
//
// Migrate is a write and fails with store.ErrReadOnly while the application is read-only.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Str("backend", a.config.Backend).Msg("Running database migrations...")
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info().Msg("Migrations completed successfully")
	return nil
}

// CreateOwner registers the owner described by cmd and writes its ID to w.
func (a *App) CreateOwner(ctx context.Context, cmd *UserCommand, w io.Writer) error {
	user, err := a.createUser(ctx, cmd.Email, cmd.OwnerName)
	if err != nil {
		return err
	}
	a.log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("Owner created")
	_, err = fmt.Fprintln(w, user.ID.String())
	return err
}
