package debug

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns a logger that appends to path when enabled. The terminal
// belongs to the UI, so nothing is ever written to stdout or stderr. The
// returned closer must be called on exit.
func Logger(enabled bool, path string) (zerolog.Logger, io.Closer) {
	if !enabled {
		return zerolog.Nop(), nopCloser{}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return l, f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
