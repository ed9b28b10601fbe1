package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	log, err := New(dir, "info")
	require.NoError(t, err)
	log.Info("store ciphertext")
	log.Debug("not written at info level")
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "store ciphertext")
	assert.Contains(t, string(data), "[INFO]")
	assert.NotContains(t, string(data), "not written")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("", "loud")
	assert.Error(t, err)
}
