package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level      string // DEBUG, INFO, WARN, ERROR
	Pretty     bool   // human readable console output
	File       string // empty disables the file sink
	MaxSizeMB  int64
	MaxBackups int
}

// New creates the process logger. Console output goes to stderr so stdout
// stays reserved for command results. When cfg.File is set, JSON lines are
// also written to a size-rotated file; the returned closer releases it.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = os.Stderr
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	out := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator, err := NewRotator(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
		if err != nil {
			l := zerolog.New(console).With().Timestamp().Logger()
			l.Warn().Err(err).Str("file", cfg.File).Msg("failed to open log file, using console only")
		} else {
			out = zerolog.MultiLevelWriter(console, rotator)
			closer = rotator
		}
	}

	l := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = l
	return l, closer
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR to zerolog levels, case
// insensitive. Anything else is INFO.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
