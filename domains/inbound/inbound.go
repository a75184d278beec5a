package inbound

import "context"

// MessageKind mirrors the gateway's message types we care about.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindButtonReply MessageKind = "button"
	KindListReply   MessageKind = "list"
)

// Event is one inbound message from the gateway, already unwrapped from the
// provider envelope. Delivery is at-least-once; duplicates must be tolerated.
type Event struct {
	From       string      `json:"from"` // sender phone identifier as the provider reports it
	Kind       MessageKind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	PayloadID  string      `json:"payload_id,omitempty"` // button/list reply identifier
	RawPayload string      `json:"-"`                    // provider envelope, verbatim, for the audit log
}

// IsInteractive reports whether the event carries a button or list payload.
func (e Event) IsInteractive() bool {
	return e.Kind == KindButtonReply || e.Kind == KindListReply
}

// Content returns the matching text for classification and logging: the
// payload identifier for interactive replies, the body otherwise.
func (e Event) Content() string {
	if e.IsInteractive() && e.PayloadID != "" {
		return e.PayloadID
	}
	return e.Text
}

type IInboundUsecase interface {
	// HandleEvent applies one inbound message to today's matching execution.
	// A missing match is not an error: the event is logged and dropped.
	HandleEvent(ctx context.Context, event Event) error
}
