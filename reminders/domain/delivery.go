package domain

import "context"

// Button is an interactive quick-reply option attached to an outbound message.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SendResult is the delivery gateway's verdict for one outbound attempt.
// Raw carries the provider response (or error body) verbatim for the audit
// log.
type SendResult struct {
	Success   bool
	MessageID string
	Raw       string
	ErrorText string
}

// Courier is the outbound message-delivery capability. Implementations talk
// to the external messaging gateway; the core only consumes this interface.
// A gateway-level rejection is reported through SendResult, not the error —
// the error is reserved for transport failures.
type Courier interface {
	SendText(ctx context.Context, to, body string, buttons []Button) (SendResult, error)
}
