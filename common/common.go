package common

import (
	"io"
	"os"
	"time"

	guuid "github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger holds the structured logger shared by all indexers
type Logger struct {
	zerolog.Logger
}

// GetNewLogger creates console logger writing to stderr
func GetNewLogger() *Logger {
	return NewLogger(os.Stderr, zerolog.InfoLevel)
}

// NewLogger creates logger which writes human-readable records into w
func NewLogger(w io.Writer, level zerolog.Level) *Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return &Logger{
		Logger: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// NopLogger returns logger which drops everything
func NopLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// OrNop returns l or the no-op logger when l is nil
func (l *Logger) OrNop() *Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}

// ForBuild tags logger with a fresh build id and the index kind
func (l *Logger) ForBuild(kind string) (*Logger, string) {
	buildID := guuid.NewString()
	return &Logger{
		Logger: l.OrNop().With().Str("index", kind).Str("build", buildID).Logger(),
	}, buildID
}

// ProgressFunc receives updates during long-running builds
type ProgressFunc func(stage string, current, total int)

// Report calls fn if it's set
func (fn ProgressFunc) Report(stage string, current, total int) {
	if fn != nil {
		fn(stage, current, total)
	}
}
