package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookAck_IsJSONBoolean(t *testing.T) {
	body, err := json.Marshal(webhookAck)
	require.NoError(t, err)
	assert.JSONEq(t, `{"received": true}`, string(body))

	var decoded struct {
		Received bool `json:"received"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.True(t, decoded.Received)
}
