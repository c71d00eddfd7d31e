package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/vifgate/pkg/config"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"warning", zap.WarnLevel},
		{"error", zap.ErrorLevel},
	}
	for _, tc := range testCases {
		level, err := ParseLevel(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, level.Level(), tc.name)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestSetupLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vifgate.log")

	logger, err := SetupLogger(config.Logging{
		Level:   "debug",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger.Debug("vif exchange", zap.String("packet_id", "AB12"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "vif exchange", entry["msg"])
	assert.Equal(t, "AB12", entry["packet_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestSetupLogger_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vifgate.log")

	logger, err := SetupLogger(config.Logging{
		Level:   "warn",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestSetupLogger_UnknownLevel(t *testing.T) {
	_, err := SetupLogger(config.Logging{Level: "loud"})
	assert.Error(t, err)
}
