package scheduler

import (
	"context"
	"time"
)

const (
	ActionReminder = "reminder"
	ActionFollowUp = "followup"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// TickRequest drives one Scheduling Driver pass. Now overrides the wall
// clock for testing; production invocations leave it nil.
type TickRequest struct {
	Now *time.Time `json:"now,omitempty"`
}

// ActionResult is one per-reminder or per-execution outcome of a tick.
type ActionResult struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // reminder | followup
	Status  string `json:"status"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TickResult is the driver's only external output besides state mutations.
type TickResult struct {
	Success         bool           `json:"success"`
	ProcessedCount  int            `json:"processedCount"`
	Results         []ActionResult `json:"results"`
	ServerLocalTime string         `json:"serverLocalTime"`
}

type ISchedulerUsecase interface {
	// ProcessDue runs one full driver pass: initial sends for due reminders,
	// then follow-up evaluation for today's pending executions. Safe to
	// invoke repeatedly and overlappingly.
	ProcessDue(ctx context.Context, request TickRequest) (TickResult, error)
}
