package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesAndAppendsToLogFile(t *testing.T) {
	t.Setenv(EnvLogFile, filepath.Join(t.TempDir(), "streamfill.log"))

	logger := New(nil, false)
	logger.Info("hello", "who", "world")
	logger.Debug("details", "n", 123)

	b, err := os.ReadFile(os.Getenv(EnvLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=hello who=world")
	assert.Contains(t, string(b), "msg=details n=123")
}

func TestNew_DiscardsWhenUnset(t *testing.T) {
	t.Setenv(EnvLogFile, "")
	var stderr bytes.Buffer

	logger := New(&stderr, false)
	logger.Error("should not appear")
	assert.Empty(t, stderr.String())
}

func TestNew_NoOpWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvLogFile, dir)

	New(nil, false).Info("ignored")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestNew_VerboseFansOut(t *testing.T) {
	t.Setenv(EnvLogFile, filepath.Join(t.TempDir(), "streamfill.log"))
	var stderr bytes.Buffer

	logger := New(&stderr, true)
	logger.With("session", 7).Debug("applied")

	assert.Contains(t, stderr.String(), "msg=applied session=7")
	b, err := os.ReadFile(os.Getenv(EnvLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=applied session=7")
}
