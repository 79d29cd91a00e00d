package keyinject

import (
	"os"

	"github.com/rs/zerolog"
)

var (
	rootLogger  = zerolog.New(os.Stdout).With().Timestamp().Logger()
	inputLogger = rootLogger.With().Str("subsystem", "input").Logger()
)

// subsystemLogger returns a logger scoped to name.
func subsystemLogger(name string) *zerolog.Logger {
	l := rootLogger.With().Str("subsystem", name).Logger()
	return &l
}

// SetLogLevel sets the minimum level logged by every subsystem.
func SetLogLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
