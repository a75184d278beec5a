package whatsapp

import (
	"encoding/json"

	"github.com/AzielCF/az-remind/domains/inbound"
)

// webhookEnvelope mirrors the Cloud API webhook structure down to the parts
// we consume. Everything else in the envelope is ignored but kept verbatim
// in the audit log.
type webhookEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// ParseWebhookEvents unwraps a raw webhook body into inbound events, one per
// message. A body without messages (status updates, unknown objects) yields
// an empty slice and no error — the webhook must still be acknowledged.
func ParseWebhookEvents(body []byte) ([]inbound.Event, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	var events []inbound.Event
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				event, ok := toEvent(msg)
				if !ok {
					continue
				}
				event.RawPayload = string(body)
				events = append(events, event)
			}
		}
	}
	return events, nil
}

func toEvent(msg inboundMessage) (inbound.Event, bool) {
	event := inbound.Event{From: msg.From}

	switch {
	case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
		event.Kind = inbound.KindButtonReply
		event.PayloadID = msg.Interactive.ButtonReply.ID
		event.Text = msg.Interactive.ButtonReply.Title
	case msg.Interactive != nil && msg.Interactive.ListReply != nil:
		event.Kind = inbound.KindListReply
		event.PayloadID = msg.Interactive.ListReply.ID
		event.Text = msg.Interactive.ListReply.Title
	case msg.Button != nil:
		// Template quick-reply buttons arrive as type "button".
		event.Kind = inbound.KindButtonReply
		event.PayloadID = msg.Button.Payload
		event.Text = msg.Button.Text
	case msg.Text != nil:
		event.Kind = inbound.KindText
		event.Text = msg.Text.Body
	default:
		return inbound.Event{}, false
	}

	if event.From == "" {
		return inbound.Event{}, false
	}
	return event, true
}
