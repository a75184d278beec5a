package domain

import "time"

// DailyStatus is the denormalized last-known state kept on the Reminder for
// UI display. The Execution record is the source of truth; these values only
// mirror it.
type DailyStatus string

const (
	DailyStatusPending   DailyStatus = "pending"
	DailyStatusSent      DailyStatus = "sent"
	DailyStatusReplied   DailyStatus = "replied"
	DailyStatusCompleted DailyStatus = "completed"
	DailyStatusMissed    DailyStatus = "missed"
	DailyStatusFailed    DailyStatus = "failed"
)

// ExecutionStatus tracks the initial message for one calendar day.
// Allowed transitions: sent -> {replied, completed, failed}; replied and
// completed are terminal for the day.
type ExecutionStatus string

const (
	ExecutionStatusSent      ExecutionStatus = "sent"
	ExecutionStatusReplied   ExecutionStatus = "replied"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// FollowUpStatus tracks the conditional second message. Allowed transitions:
// pending -> {sent, skipped, cancelled_by_user}; everything after pending is
// terminal.
type FollowUpStatus string

const (
	FollowUpPending         FollowUpStatus = "pending"
	FollowUpSent            FollowUpStatus = "sent"
	FollowUpSkipped         FollowUpStatus = "skipped"
	FollowUpCancelledByUser FollowUpStatus = "cancelled_by_user"
)

// MessageDirection distinguishes audit-log rows.
type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// MessageKind names what a logged message was.
type MessageKind string

const (
	KindReminder     MessageKind = "reminder"
	KindFollowUp     MessageKind = "followup"
	KindReply        MessageKind = "reply"
	KindConfirmation MessageKind = "confirmation"
)

// Reminder is the durable one-shot notification configuration. Created and
// edited through the admin surface; the core only flips IsActive and the
// denormalized tracking fields as side effects of execution transitions.
type Reminder struct {
	ID              string      `json:"id"`
	Phone           string      `json:"phone"`
	Title           string      `json:"title"`
	Message         string      `json:"message"`
	ReminderTime    string      `json:"reminder_time"` // "HH:MM", deployment-local clock
	FollowUpMessage string      `json:"follow_up_message,omitempty"`
	FollowUpTime    string      `json:"follow_up_time,omitempty"` // "HH:MM", empty disables the follow-up
	IsActive        bool        `json:"is_active"`
	LastSentAt      *time.Time  `json:"last_sent_at,omitempty"`
	DailyStatus     DailyStatus `json:"daily_status"`
	ReplyText       string      `json:"reply_text,omitempty"`
	LastRepliedAt   *time.Time  `json:"last_replied_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Execution records one day's attempt to run a Reminder's
// notify -> follow-up -> reply flow. At most one exists per
// (reminder, calendar day); the phone is snapshotted at send time because the
// parent Reminder's phone may change afterwards.
type Execution struct {
	ID              string          `json:"id"`
	ReminderID      string          `json:"reminder_id"`
	Phone           string          `json:"phone"`
	Date            string          `json:"date"` // YYYY-MM-DD, deployment-local zone
	Status          ExecutionStatus `json:"status"`
	SentAt          time.Time       `json:"sent_at"`
	ReplyReceivedAt *time.Time      `json:"reply_received_at,omitempty"`
	FollowUpStatus  FollowUpStatus  `json:"follow_up_status"`
	FollowUpSentAt  *time.Time      `json:"follow_up_sent_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Terminal reports whether the day's flow has fully resolved, i.e. nothing
// the Scheduling Driver could still do for this execution.
func (e *Execution) Terminal() bool {
	return e.Status != ExecutionStatusSent || e.FollowUpStatus != FollowUpPending
}

// MessageLog is one append-only audit row per inbound or outbound message
// attempt. Never mutated after creation; the failsafe reply-recovery scan
// re-derives missed transitions from these rows.
type MessageLog struct {
	ID          string           `json:"id"`
	ReminderID  string           `json:"reminder_id,omitempty"`
	Phone       string           `json:"phone"`
	Direction   MessageDirection `json:"direction"`
	Kind        MessageKind      `json:"kind"`
	Content     string           `json:"content"`
	Status      string           `json:"status"` // sent, failed, received
	RawResponse string           `json:"raw_response,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
