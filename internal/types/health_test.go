package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatus_Constructors(t *testing.T) {
	h := Healthy("ok")
	assert.True(t, h.IsHealthy())
	assert.False(t, h.IsUnhealthy())
	assert.False(t, h.CheckedAt.IsZero())

	u := Unhealthy("connection refused")
	assert.True(t, u.IsUnhealthy())
	assert.Equal(t, "connection refused", u.Message)

	n := UnknownHealth("not probed yet")
	assert.False(t, n.IsHealthy())
	assert.False(t, n.IsUnhealthy())
	assert.Equal(t, "unknown", n.State.String())
}

func TestHealthStatus_JSON(t *testing.T) {
	data, err := json.Marshal(Unhealthy("down"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "unhealthy", got["state"])
	assert.Equal(t, "down", got["message"])
	assert.Contains(t, got, "checked_at")

	data, err = json.Marshal(Healthy(""))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "message")
}
