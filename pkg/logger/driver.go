package logger

import (
	"github.com/rs/zerolog"
)

// DriverLogger routes the SurrealDB driver's log calls into a zerolog.Logger. Its
// methods take a message and alternating key/value pairs.
type DriverLogger struct {
	logger zerolog.Logger
}

// NewDriverLogger tags every entry with component=surrealdb.
func NewDriverLogger(l zerolog.Logger) *DriverLogger {
	return &DriverLogger{logger: l.With().Str("component", "surrealdb").Logger()}
}

func (d *DriverLogger) Error(msg string, args ...any) {
	d.log(d.logger.Error(), msg, args)
}

func (d *DriverLogger) Warn(msg string, args ...any) {
	d.log(d.logger.Warn(), msg, args)
}

func (d *DriverLogger) Info(msg string, args ...any) {
	d.log(d.logger.Info(), msg, args)
}

func (d *DriverLogger) Debug(msg string, args ...any) {
	d.log(d.logger.Debug(), msg, args)
}

func (d *DriverLogger) log(e *zerolog.Event, msg string, args []any) {
	if len(args)%2 == 1 {
		args = append(args, "!MISSING")
	}
	e.Fields(args).Msg(msg)
}
