package logutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "qcdash.log")

	logger, closer, err := New("warn", path)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"message":"kept"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, closer, err := New("loud", "")
	require.Error(t, err)
	closer()
}
