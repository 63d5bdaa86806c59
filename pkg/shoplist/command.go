package shoplist

// Command represents a discrete application operation with its specific configuration.
//
// Parse turns the command line into a Command and a [Config]. Main then creates the [App]
// from the Config and dispatches on the concrete command type:
//   - [MigrateCommand]: create or upgrade the schema
//   - [RunCommand]: serve the HTTP API
//   - [UserCommand]: register an owner
type Command interface {
	// Name returns the sub-command name used on the command line.
	Name() string
}

// MigrateCommand creates the users and items tables and their indexes on the configured
// backend. It is safe to run repeatedly and never drops data.
type MigrateCommand struct{}

// Name returns "migrate".
func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server. It runs until the context is cancelled or the
// process receives SIGINT or SIGTERM.
type RunCommand struct{}

// Name returns "run".
func (c *RunCommand) Name() string {
	return "run"
}

// UserCommand registers an owner and prints the new owner ID. Items are always created
// for an explicit owner, so at least one owner must exist before the list can be used.
type UserCommand struct {
	Email     string
	OwnerName string
}

// Name returns "user".
func (c *UserCommand) Name() string {
	return "user"
}
