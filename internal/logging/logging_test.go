package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobal(t *testing.T) {
	prev := log.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(level)
	})
}

func TestInitConsoleOnly(t *testing.T) {
	restoreGlobal(t)

	var console bytes.Buffer
	closer, err := Init(Options{Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	logger := WithComponent("segment-finder")
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	out := console.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "segment-finder")
	assert.NotContains(t, out, "hidden")
}

func TestInitWithFile(t *testing.T) {
	restoreGlobal(t)

	path := filepath.Join(t.TempDir(), "logs", "lecturedeck.log")
	var console bytes.Buffer
	closer, err := Init(Options{
		Verbose:    true,
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
		Console:    &console,
	})
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger := WithComponent("aligner")
	logger.Debug().Int("breaks", 3).Msg("aligned")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "aligned")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "aligner", entry["component"])
	assert.Equal(t, "aligned", entry["message"])
	assert.Equal(t, float64(3), entry["breaks"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Info().Msg("both")

	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")

	single := NewLogger(&a)
	single.Warn().Msg("one")
	assert.Contains(t, a.String(), "one")
}
