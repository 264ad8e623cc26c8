package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ScopedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("inventory-service", &buf)

	log.WithComponent("allocator").WithProduct("prod-1").Info().Msg("planned")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "inventory-service", line["service"])
	assert.Equal(t, "allocator", line["component"])
	assert.Equal(t, "prod-1", line["product_id"])
	assert.Equal(t, "planned", line["message"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Str("batch_id", "b").Msg("discarded")
	})
}
