package domain

import (
	"context"
	"time"
)

// ReminderRepository persists the durable reminder configuration.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *Reminder) error
	GetByID(ctx context.Context, id string) (*Reminder, error)
	Update(ctx context.Context, reminder *Reminder) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Reminder, error)
	ListActive(ctx context.Context) ([]*Reminder, error)

	// MarkSent updates the denormalized tracking fields after a successful
	// initial send. The reminder stays active; deactivation happens only once
	// the day's flow is terminal.
	MarkSent(ctx context.Context, id string, at time.Time) error

	// Deactivate flips is_active off and records the terminal daily status.
	Deactivate(ctx context.Context, id string, status DailyStatus) error

	// RecordReply stores the reply side effects (deactivation included).
	RecordReply(ctx context.Context, id string, status DailyStatus, replyText string, at time.Time) error
}

// ExecutionRepository persists per-day execution records. All transition
// methods are conditional atomic updates guarded by the current state and
// report whether this caller applied the change, so concurrent and repeated
// invocations converge instead of double-applying.
type ExecutionRepository interface {
	// CreateIfAbsent inserts the execution unless one already exists for its
	// (reminder_id, date) pair. Returns true when this caller created it.
	CreateIfAbsent(ctx context.Context, execution *Execution) (bool, error)

	// Upsert inserts the execution or leaves an existing row for the same
	// (reminder_id, date) untouched, returning whichever row now exists.
	Upsert(ctx context.Context, execution *Execution) (*Execution, error)

	// GetFresh re-reads the latest persisted state by primary key. Callers
	// must use this immediately before mutating, never a copy cached from an
	// earlier scan.
	GetFresh(ctx context.Context, id string) (*Execution, error)

	GetByReminderAndDate(ctx context.Context, reminderID, date string) (*Execution, error)
	ListByDate(ctx context.Context, date string) ([]*Execution, error)
	ListPendingFollowUps(ctx context.Context, date string) ([]*Execution, error)

	// MarkReplied moves status sent -> replied/completed and cancels a still
	// pending follow-up in the same statement.
	MarkReplied(ctx context.Context, id string, status ExecutionStatus, at time.Time) (bool, error)

	// MarkFollowUpSent moves follow_up_status pending -> sent while the reply
	// window is still open.
	MarkFollowUpSent(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkFollowUpSkipped moves follow_up_status pending -> skipped (no
	// follow-up configured, or configuration rejected).
	MarkFollowUpSkipped(ctx context.Context, id string) (bool, error)

	// Delete removes an execution. Debug tooling only; the core never deletes.
	Delete(ctx context.Context, id string) error
}

// MessageLogRepository is the append-only audit trail.
type MessageLogRepository interface {
	Append(ctx context.Context, log *MessageLog) error
	ListInboundSince(ctx context.Context, since time.Time) ([]*MessageLog, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]*MessageLog, error)
}
