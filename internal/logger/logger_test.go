package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSetupJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() {
		Output = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	Setup("debug", "json")
	Get("loader").Debug().Int("rows", 3).Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loader", entry["component"])
	assert.Equal(t, "loaded", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() {
		Output = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	Setup("warn", "json")
	Get("cli").Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}
