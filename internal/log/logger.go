package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// envJSONOutput switches the process logger from the human console
// writer to raw JSON, for running under a log collector.
const envJSONOutput = "QUIZROOM_LOG_JSON"

// New builds the process logger. level accepts zerolog's level names
// (trace, debug, info, warn, error); anything unrecognized falls back
// to info.
func New(level string) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	if os.Getenv(envJSONOutput) != "" {
		out = os.Stdout
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "quizroom").Logger()
	return &logger
}
