package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// GEMINI_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// NEUROSCAN_LOG_FORMAT selects console (default) or json output.
func Init() {
	InitWith(os.Getenv("GEMINI_LOG_LEVEL"), os.Getenv("NEUROSCAN_LOG_FORMAT"))
}

// InitWith configures the global logger from explicit values. Output always
// goes to stderr so stdout stays free for metrics lines and stdio transports.
func InitWith(level, format string) {
	InitOutput(os.Stderr, level, format)
}

// InitOutput is InitWith with a caller-supplied writer.
func InitOutput(w io.Writer, level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

// ParseLevel maps a GEMINI_LOG_LEVEL value to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
