package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsKeepTheirTypes(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")

	l.Info("snapshot written",
		Int64("bytes", 1<<40),
		Float64("rps", 2.5),
		Bool("enabled", true),
		Strings("instruments", []string{"USD", "EUR"}),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "snapshot written", got["message"])
	assert.Equal(t, float64(1<<40), got["bytes"])
	assert.Equal(t, 2.5, got["rps"])
	assert.Equal(t, true, got["enabled"])
	assert.Equal(t, "USD, EUR", got["instruments"])
	assert.Equal(t, "boom", got["error"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "info").Debug("hidden", Int("n", 1))
	assert.Zero(t, buf.Len())
}
