package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kashi.log")

	logger, err := New(Options{File: path})
	require.NoError(t, err)

	logger.With("session", "abc").Infow("imported lyrics", "count", 3)
	logger.Debugw("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "imported lyrics", rec["msg"])
	assert.Equal(t, "abc", rec["session"])
	assert.Equal(t, float64(3), rec["count"])
	assert.Contains(t, rec, "timestamp")
}

func TestNew_VerboseIncludesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kashi.log")

	logger, err := New(Options{File: path, Verbose: true})
	require.NoError(t, err)
	logger.Debugw("probe", "duration", 1.5)
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"probe"`)
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Infow("nothing", "k", "v")
	assert.NotNil(t, logger.With("a", 1))
}
