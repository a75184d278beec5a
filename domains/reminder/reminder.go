package reminder

import (
	"context"

	"github.com/AzielCF/az-remind/reminders/domain"
)

type CreateRequest struct {
	Phone           string `json:"phone" form:"phone"`
	Title           string `json:"title" form:"title"`
	Message         string `json:"message" form:"message"`
	ReminderTime    string `json:"reminder_time" form:"reminder_time"`
	FollowUpMessage string `json:"follow_up_message" form:"follow_up_message"`
	FollowUpTime    string `json:"follow_up_time" form:"follow_up_time"`
}

type UpdateRequest struct {
	ID              string  `json:"id" uri:"id"`
	Phone           *string `json:"phone,omitempty"`
	Title           *string `json:"title,omitempty"`
	Message         *string `json:"message,omitempty"`
	ReminderTime    *string `json:"reminder_time,omitempty"`
	FollowUpMessage *string `json:"follow_up_message,omitempty"`
	FollowUpTime    *string `json:"follow_up_time,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	// DailyStatus lets the admin surface force today's state ("completed" or
	// "replied"); the change is synced into today's Execution so a pending
	// follow-up gets cancelled.
	DailyStatus *string `json:"daily_status,omitempty"`
}

type BlockFollowUpRequest struct {
	Phone      string `json:"phone" form:"phone"`
	ReminderID string `json:"reminder_id,omitempty" form:"reminder_id"`
}

type BlockFollowUpResponse struct {
	Blocked    int                 `json:"blocked"`
	Executions []*domain.Execution `json:"executions"`
}

// View is a Reminder merged with today's execution state for display: the
// denormalized fields are recomputed from the Execution (the source of
// truth) rather than trusted from the Reminder row.
type View struct {
	domain.Reminder
	TodayExecution *domain.Execution `json:"today_execution,omitempty"`
}

type IReminderUsecase interface {
	Create(ctx context.Context, request CreateRequest) (*domain.Reminder, error)
	Update(ctx context.Context, request UpdateRequest) (*domain.Reminder, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Reminder, error)
	ListWithTodayStatus(ctx context.Context) ([]View, error)
	BlockFollowUp(ctx context.Context, request BlockFollowUpRequest) (BlockFollowUpResponse, error)
}
