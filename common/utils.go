package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger. An empty level means
// info. When pretty is set, output is human readable instead of JSON.
func SetupLogging(level string, pretty bool, out io.Writer) error {
	if out == nil {
		out = os.Stderr
	}
	if level == "" {
		level = zerolog.InfoLevel.String()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// GenerateRunID generates a unique identifier based on the current timestamp.
// The identifier is formatted as a string in the "YYYYMMDDHHMMSS" format.
func GenerateRunID() string {
	return time.Now().Format("20060102150405")
}

// GenerateRequestID returns a random identifier for one mining request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// WithRequestLogger attaches a sub-logger carrying request_id to ctx. The
// logger is retrieved with zerolog.Ctx.
func WithRequestLogger(ctx context.Context, requestID string) context.Context {
	logger := log.With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx)
}

// ReadIDsFromFile reads identifiers from a file, one per line.
// It ignores empty lines and lines starting with a '#' character (comments).
func ReadIDsFromFile(filename string) ([]string, error) {
	log.Debug().Str("filename", filename).Msg("Reading IDs from file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	var ids []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			ids = append(ids, line)
		}
	}

	log.Debug().Int("id_count", len(ids)).Msg("IDs read from file")
	return ids, nil
}
