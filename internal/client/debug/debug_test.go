package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerDisabledWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, c := Logger(false, path)
	l.Info().Msg("hidden")
	require.NoError(t, c.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, c := Logger(true, path)
	l.Info().Str("user", "Ana").Msg("logged in")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logged in")
	assert.Contains(t, string(data), "user=Ana")
}
