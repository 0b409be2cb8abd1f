package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Cleanup(func() { log.Logger = zerolog.Nop() })

	t.Run("json output at level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "warn", Output: &buf})
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

		log.Info().Msg("dropped")
		log.Warn().Str("tool", "port_scanner").Msg("kept")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "port_scanner", entry["tool"])
		assert.Equal(t, "kept", entry["message"])
		assert.Contains(t, entry, "time")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger := New(Config{Level: "chatty", Output: &bytes.Buffer{}})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

		logger = New(Config{Output: &bytes.Buffer{}})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("pretty output", func(t *testing.T) {
		var buf bytes.Buffer
		New(Config{Level: "debug", Pretty: true, Output: &buf})
		log.Debug().Msg("hello")
		assert.Contains(t, buf.String(), "DBG")
		assert.Contains(t, buf.String(), "hello")
	})
}

func TestComponent(t *testing.T) {
	t.Cleanup(func() { log.Logger = zerolog.Nop() })

	var buf bytes.Buffer
	New(Config{Level: "info", Output: &buf})
	l := Component("server")
	l.Info().Msg("up")
	assert.Contains(t, buf.String(), `"component":"server"`)
}
