package usecase

import (
	"context"
	"time"

	"github.com/AzielCF/az-remind/core/config"
	domainInbound "github.com/AzielCF/az-remind/domains/inbound"
	"github.com/AzielCF/az-remind/pkg/clock"
	"github.com/AzielCF/az-remind/pkg/intent"
	"github.com/AzielCF/az-remind/pkg/phone"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type serviceInbound struct {
	reminderRepo  domain.ReminderRepository
	executionRepo domain.ExecutionRepository
	messageLog    domain.MessageLogRepository
	courier       domain.Courier
	clk           *clock.LocalClock
	cfg           config.SchedulerConfig
}

func NewInboundService(
	reminderRepo domain.ReminderRepository,
	executionRepo domain.ExecutionRepository,
	messageLog domain.MessageLogRepository,
	courier domain.Courier,
	clk *clock.LocalClock,
	cfg config.SchedulerConfig,
) domainInbound.IInboundUsecase {
	return &serviceInbound{
		reminderRepo:  reminderRepo,
		executionRepo: executionRepo,
		messageLog:    messageLog,
		courier:       courier,
		clk:           clk,
		cfg:           cfg,
	}
}

func (service *serviceInbound) HandleEvent(ctx context.Context, event domainInbound.Event) error {
	now := service.clk.Now()
	content := event.Content()

	// Log before anything else: even if every step below fails, the failsafe
	// scan on the next driver tick can recover the transition from this row.
	if err := service.messageLog.Append(ctx, &domain.MessageLog{
		ID:          uuid.NewString(),
		Phone:       event.From,
		Direction:   domain.DirectionInbound,
		Kind:        domain.KindReply,
		Content:     content,
		Status:      "received",
		RawResponse: event.RawPayload,
		CreatedAt:   now,
	}); err != nil {
		logrus.WithError(err).Error("[REPLY] Failed to log inbound message")
	}

	classification := intent.Classify(content, event.IsInteractive())

	targets, err := service.todayExecutionsFor(ctx, event.From, now)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		targets, err = service.synthesizeForActiveReminders(ctx, event.From, now)
		if err != nil {
			return err
		}
	}
	if len(targets) == 0 {
		// Unknown sender. Dropping is deliberate: the gateway retries on
		// errors, and retrying a message we will never match helps nobody.
		logrus.Infof("[REPLY] No reminder matches sender %s, dropping message", event.From)
		return nil
	}

	status := domain.ExecutionStatusReplied
	daily := domain.DailyStatusReplied
	if classification.Completion {
		status = domain.ExecutionStatusCompleted
		daily = domain.DailyStatusCompleted
	}

	anyApplied := false
	for _, execution := range targets {
		applied, err := service.executionRepo.MarkReplied(ctx, execution.ID, status, now)
		if err != nil {
			logrus.WithError(err).Errorf("[REPLY] Failed to apply reply to execution %s", execution.ID)
			continue
		}
		if !applied {
			// Already terminal: a duplicate delivery or a concurrent handler
			// got here first. Nothing to redo.
			logrus.Debugf("[REPLY] Execution %s already resolved, duplicate reply ignored", execution.ID)
			continue
		}
		anyApplied = true
		if err := service.reminderRepo.RecordReply(ctx, execution.ReminderID, daily, content, now); err != nil {
			logrus.WithError(err).Warnf("[REPLY] Failed to record reply on reminder %s", execution.ReminderID)
		}
		logrus.Infof("[REPLY] Execution %s resolved as %s by reply from %s", execution.ID, status, event.From)
	}

	if anyApplied && classification.Completion {
		service.sendConfirmation(ctx, targets[0], now)
	}
	return nil
}

// todayExecutionsFor returns every execution for today whose snapshotted
// phone matches the sender. A sender with several reminders resolves them
// all; there is no way to tell which one they meant.
func (service *serviceInbound) todayExecutionsFor(ctx context.Context, from string, now time.Time) ([]*domain.Execution, error) {
	executions, err := service.executionRepo.ListByDate(ctx, service.clk.DateKey(now))
	if err != nil {
		return nil, err
	}
	var matched []*domain.Execution
	for _, execution := range executions {
		if phone.Matches(execution.Phone, from) {
			matched = append(matched, execution)
		}
	}
	return matched, nil
}

// synthesizeForActiveReminders covers a reply that arrives before the day's
// initial send was recorded (driver crashed mid-send, or the user replied to
// yesterday's thread). An execution is created on the spot so the reply still
// lands in durable state.
func (service *serviceInbound) synthesizeForActiveReminders(ctx context.Context, from string, now time.Time) ([]*domain.Execution, error) {
	reminders, err := service.reminderRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	today := service.clk.DateKey(now)
	var matched []*domain.Execution
	for _, reminder := range reminders {
		if !phone.Matches(reminder.Phone, from) {
			continue
		}
		execution, err := service.executionRepo.Upsert(ctx, &domain.Execution{
			ID:             uuid.NewString(),
			ReminderID:     reminder.ID,
			Phone:          reminder.Phone,
			Date:           today,
			Status:         domain.ExecutionStatusSent,
			SentAt:         now,
			FollowUpStatus: domain.FollowUpPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			logrus.WithError(err).Errorf("[REPLY] Failed to synthesize execution for reminder %s", reminder.ID)
			continue
		}
		logrus.Infof("[REPLY] Synthesized execution %s for reminder %s before any recorded send", execution.ID, reminder.ID)
		matched = append(matched, execution)
	}
	return matched, nil
}

// sendConfirmation acknowledges a completion. Best effort only: the state
// transition already happened and must not be rolled back over a send error.
func (service *serviceInbound) sendConfirmation(ctx context.Context, execution *domain.Execution, now time.Time) {
	text := service.cfg.ConfirmationText
	if text == "" {
		return
	}

	sendResult, err := service.courier.SendText(ctx, execution.Phone, text, nil)
	logStatus := "sent"
	if err != nil || !sendResult.Success {
		logStatus = "failed"
		logrus.WithError(err).Warnf("[REPLY] Failed to send confirmation to %s", execution.Phone)
	}
	if err := service.messageLog.Append(ctx, &domain.MessageLog{
		ID:          uuid.NewString(),
		ReminderID:  execution.ReminderID,
		Phone:       execution.Phone,
		Direction:   domain.DirectionOutbound,
		Kind:        domain.KindConfirmation,
		Content:     text,
		Status:      logStatus,
		RawResponse: sendResult.Raw,
		CreatedAt:   now,
	}); err != nil {
		logrus.WithError(err).Error("[REPLY] Failed to log confirmation message")
	}
}
