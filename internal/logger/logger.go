package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup configures the root zerolog logger. Debug mode enables the console
// writer and debug-level output.
func Setup(debug bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}
