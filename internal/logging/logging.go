package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const timeFormat = "2006.01.02 15:04:05"

// Options configures Setup.
type Options struct {
	Level string
	// File, when set, receives the log through a rotating writer instead of Out.
	File string
	Out  io.Writer
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal", "critical":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewWriter returns a console writer producing lines like
// "[2017.06.30 03:50:22] I message key=value".
func NewWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: timeFormat,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("[%s]", formatTime(i))
		},
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			if s == "" {
				return "?"
			}
			return strings.ToUpper(s[:1])
		},
	}
}

func formatTime(i interface{}) string {
	s, ok := i.(string)
	if !ok {
		return fmt.Sprint(i)
	}
	t, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return s
	}
	return t.Local().Format(timeFormat)
}

// Setup configures the global logger and returns the run id attached to it.
func Setup(opts Options) (string, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("create log directory: %w", err)
			}
		}
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	runID := uuid.NewString()
	log.Logger = zerolog.New(NewWriter(out)).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
	return runID, nil
}
