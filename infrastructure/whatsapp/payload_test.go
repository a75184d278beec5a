package whatsapp

import (
	"testing"

	"github.com/AzielCF/az-remind/domains/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookEvents_TextMessage(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "919876543210", "type": "text", "text": {"body": "Completed"}}
		]}}]}]
	}`)

	events, err := ParseWebhookEvents(body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "919876543210", events[0].From)
	assert.Equal(t, inbound.KindText, events[0].Kind)
	assert.Equal(t, "Completed", events[0].Text)
	assert.Equal(t, "Completed", events[0].Content())
}

func TestParseWebhookEvents_ButtonReply(t *testing.T) {
	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "919876543210", "type": "interactive",
			 "interactive": {"type": "button_reply",
			   "button_reply": {"id": "completed_habit", "title": "Completed"}}}
		]}}]}]
	}`)

	events, err := ParseWebhookEvents(body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, inbound.KindButtonReply, events[0].Kind)
	assert.Equal(t, "completed_habit", events[0].PayloadID)
	assert.True(t, events[0].IsInteractive())
	assert.Equal(t, "completed_habit", events[0].Content())
}

func TestParseWebhookEvents_StatusOnlyPayloadYieldsNoEvents(t *testing.T) {
	body := []byte(`{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {"statuses": [{"id": "x"}]}}]}]}`)

	events, err := ParseWebhookEvents(body)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseWebhookEvents_MalformedBody(t *testing.T) {
	_, err := ParseWebhookEvents([]byte("not json"))
	assert.Error(t, err)
}
