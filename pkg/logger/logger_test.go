package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Output: &buf, Service: "reservations"})

	log.Debug("booking created", "id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "booking created", entry["msg"])
	assert.Equal(t, "reservations", entry[SERVICE])
	assert.EqualValues(t, 7, entry["id"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Format: TEXT}).With("resource_id", int64(3))

	log.Info("lease acquired")
	assert.Contains(t, buf.String(), "resource_id=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(DEBUG))
	assert.Equal(t, slog.LevelError, ParseLevel(ERROR))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.True(t, ValidLevel(WARN))
	assert.False(t, ValidLevel("verbose"))
}
