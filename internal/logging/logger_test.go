package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdfask/internal/config"
)

func TestNewWritesJSONLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "pdfask.log")
	log, err := New(config.LogConfig{File: file, Level: "info", MaxSizeMB: 1}, false)
	require.NoError(t, err)

	log.Named("backend").Info("query answered", zap.Int("fragments", 2))
	log.Debug("dropped below level")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "query answered", entry["message"])
	assert.Equal(t, "backend", entry["logger"])
	assert.Equal(t, float64(2), entry["fragments"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"}, false)
	assert.Error(t, err)
}
