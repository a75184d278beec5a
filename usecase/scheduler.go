package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-remind/core/config"
	domainScheduler "github.com/AzielCF/az-remind/domains/scheduler"
	"github.com/AzielCF/az-remind/infrastructure/valkey"
	"github.com/AzielCF/az-remind/pkg/clock"
	"github.com/AzielCF/az-remind/pkg/intent"
	"github.com/AzielCF/az-remind/pkg/phone"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	tickLockKey = "lock:scheduler:tick"
	tickLockTTL = 55 * time.Second
)

type serviceScheduler struct {
	reminderRepo  domain.ReminderRepository
	executionRepo domain.ExecutionRepository
	messageLog    domain.MessageLogRepository
	courier       domain.Courier
	clk           *clock.LocalClock
	cfg           config.SchedulerConfig
	acquireLock   valkey.LockFunc
}

func NewSchedulerService(
	reminderRepo domain.ReminderRepository,
	executionRepo domain.ExecutionRepository,
	messageLog domain.MessageLogRepository,
	courier domain.Courier,
	clk *clock.LocalClock,
	cfg config.SchedulerConfig,
	acquireLock valkey.LockFunc,
) domainScheduler.ISchedulerUsecase {
	return &serviceScheduler{
		reminderRepo:  reminderRepo,
		executionRepo: executionRepo,
		messageLog:    messageLog,
		courier:       courier,
		clk:           clk,
		cfg:           cfg,
		acquireLock:   acquireLock,
	}
}

func (service *serviceScheduler) ProcessDue(ctx context.Context, request domainScheduler.TickRequest) (domainScheduler.TickResult, error) {
	now := service.clk.Now()
	if request.Now != nil {
		now = request.Now.In(now.Location())
	}

	result := domainScheduler.TickResult{
		Success:         true,
		Results:         []domainScheduler.ActionResult{},
		ServerLocalTime: now.Format("2006-01-02 15:04:05 MST"),
	}

	// The lock only suppresses duplicate sends from overlapping ticks; every
	// transition below is guarded in the database, so running without Valkey
	// is safe.
	if service.acquireLock != nil && !service.acquireLock(tickLockKey, tickLockTTL) {
		logrus.Info("[SCHEDULER] Tick already running elsewhere, skipping this pass")
		return result, nil
	}

	service.processInitialSends(ctx, now, &result)
	service.processFollowUps(ctx, now, &result)

	result.ProcessedCount = len(result.Results)
	logrus.Infof("[SCHEDULER] Tick done at %s: %d action(s)", result.ServerLocalTime, result.ProcessedCount)
	return result, nil
}

func (service *serviceScheduler) processInitialSends(ctx context.Context, now time.Time, result *domainScheduler.TickResult) {
	reminders, err := service.reminderRepo.ListActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Failed to list active reminders")
		result.Success = false
		result.Results = append(result.Results, domainScheduler.ActionResult{
			Type:   domainScheduler.ActionReminder,
			Status: domainScheduler.StatusError,
			Error:  err.Error(),
		})
		return
	}

	today := service.clk.DateKey(now)
	nowMinutes := clock.MinutesFromMidnight(service.clk.HHMM(now))

	for _, reminder := range reminders {
		dueMinutes := clock.MinutesFromMidnight(reminder.ReminderTime)
		if dueMinutes < 0 {
			logrus.Warnf("[SCHEDULER] Reminder %s has unparseable time %q, skipping", reminder.ID, reminder.ReminderTime)
			result.Results = append(result.Results, domainScheduler.ActionResult{
				ID:     reminder.ID,
				Type:   domainScheduler.ActionReminder,
				Status: domainScheduler.StatusError,
				Error:  fmt.Sprintf("unparseable reminder_time %q", reminder.ReminderTime),
			})
			continue
		}
		if nowMinutes < dueMinutes {
			continue
		}

		// One execution per (reminder, day). An existing row means an earlier
		// tick already sent (or is about to win the create below).
		if _, err := service.executionRepo.GetByReminderAndDate(ctx, reminder.ID, today); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrExecutionNotFound) {
			logrus.WithError(err).Errorf("[SCHEDULER] Failed to check execution for reminder %s", reminder.ID)
			continue
		}

		result.Results = append(result.Results, service.sendInitial(ctx, reminder, today, now))
	}
}

func (service *serviceScheduler) sendInitial(ctx context.Context, reminder *domain.Reminder, today string, now time.Time) domainScheduler.ActionResult {
	action := domainScheduler.ActionResult{
		ID:    reminder.ID,
		Type:  domainScheduler.ActionReminder,
		Phone: reminder.Phone,
	}

	buttons := []domain.Button{{ID: intent.CompletionButtonID, Title: "Completed"}}
	sendResult, err := service.courier.SendText(ctx, reminder.Phone, reminder.Message, buttons)

	logStatus := "sent"
	if err != nil || !sendResult.Success {
		logStatus = "failed"
	}
	service.appendLog(ctx, &domain.MessageLog{
		ID:          uuid.NewString(),
		ReminderID:  reminder.ID,
		Phone:       reminder.Phone,
		Direction:   domain.DirectionOutbound,
		Kind:        domain.KindReminder,
		Content:     reminder.Message,
		Status:      logStatus,
		RawResponse: sendResult.Raw,
		CreatedAt:   now,
	})

	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Transport failure sending reminder %s", reminder.ID)
		action.Status = domainScheduler.StatusFailed
		action.Error = err.Error()
		return action
	}
	if !sendResult.Success {
		logrus.Errorf("[SCHEDULER] Gateway rejected reminder %s: %s", reminder.ID, sendResult.ErrorText)
		action.Status = domainScheduler.StatusFailed
		action.Error = sendResult.ErrorText
		return action
	}

	execution := &domain.Execution{
		ID:             uuid.NewString(),
		ReminderID:     reminder.ID,
		Phone:          reminder.Phone,
		Date:           today,
		Status:         domain.ExecutionStatusSent,
		SentAt:         now,
		FollowUpStatus: domain.FollowUpPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := service.executionRepo.CreateIfAbsent(ctx, execution)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Failed to record execution for reminder %s", reminder.ID)
		action.Status = domainScheduler.StatusError
		action.Error = err.Error()
		return action
	}
	if !created {
		// A concurrent tick won the create after our existence check. The
		// duplicate message already went out; state converges on one row.
		logrus.Warnf("[SCHEDULER] Concurrent tick already recorded execution for reminder %s on %s", reminder.ID, today)
	}

	if err := service.reminderRepo.MarkSent(ctx, reminder.ID, now); err != nil {
		logrus.WithError(err).Warnf("[SCHEDULER] Failed to mark reminder %s as sent", reminder.ID)
	}

	logrus.Infof("[SCHEDULER] Sent reminder %s to %s", reminder.ID, reminder.Phone)
	action.Status = domainScheduler.StatusSent
	action.Message = reminder.Title
	return action
}

func (service *serviceScheduler) processFollowUps(ctx context.Context, now time.Time, result *domainScheduler.TickResult) {
	today := service.clk.DateKey(now)
	pending, err := service.executionRepo.ListPendingFollowUps(ctx, today)
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Failed to list pending follow-ups")
		result.Success = false
		result.Results = append(result.Results, domainScheduler.ActionResult{
			Type:   domainScheduler.ActionFollowUp,
			Status: domainScheduler.StatusError,
			Error:  err.Error(),
		})
		return
	}

	nowMinutes := clock.MinutesFromMidnight(service.clk.HHMM(now))

	for _, stale := range pending {
		// Always mutate from a fresh read; the scan result may predate a
		// reply applied milliseconds ago.
		execution, err := service.executionRepo.GetFresh(ctx, stale.ID)
		if err != nil {
			logrus.WithError(err).Errorf("[SCHEDULER] Failed to re-read execution %s", stale.ID)
			continue
		}
		if execution.Status != domain.ExecutionStatusSent || execution.FollowUpStatus != domain.FollowUpPending {
			continue
		}

		if recovered := service.recoverMissedReply(ctx, execution, now); recovered != nil {
			result.Results = append(result.Results, *recovered)
			continue
		}

		reminder, err := service.reminderRepo.GetByID(ctx, execution.ReminderID)
		if err != nil {
			// Parent deleted after the send; nothing left to follow up on.
			logrus.WithError(err).Warnf("[SCHEDULER] Reminder %s gone, skipping follow-up for execution %s", execution.ReminderID, execution.ID)
			if _, err := service.executionRepo.MarkFollowUpSkipped(ctx, execution.ID); err != nil {
				logrus.WithError(err).Errorf("[SCHEDULER] Failed to skip follow-up for execution %s", execution.ID)
			}
			continue
		}

		if reminder.FollowUpTime == "" {
			service.skipFollowUp(ctx, execution, reminder, domain.DailyStatusSent)
			result.Results = append(result.Results, domainScheduler.ActionResult{
				ID:      execution.ID,
				Type:    domainScheduler.ActionFollowUp,
				Status:  domainScheduler.StatusSkipped,
				Phone:   execution.Phone,
				Message: "no follow-up configured",
			})
			continue
		}

		followUpMinutes := clock.MinutesFromMidnight(reminder.FollowUpTime)
		reminderMinutes := clock.MinutesFromMidnight(reminder.ReminderTime)
		if followUpMinutes < 0 || followUpMinutes <= reminderMinutes {
			logrus.Warnf("[SCHEDULER] Reminder %s follow-up time %q not after reminder time %q, skipping permanently for today",
				reminder.ID, reminder.FollowUpTime, reminder.ReminderTime)
			service.skipFollowUp(ctx, execution, reminder, domain.DailyStatusSent)
			result.Results = append(result.Results, domainScheduler.ActionResult{
				ID:     execution.ID,
				Type:   domainScheduler.ActionFollowUp,
				Status: domainScheduler.StatusSkipped,
				Phone:  execution.Phone,
				Error:  "follow-up time not after reminder time",
			})
			continue
		}

		// A follow-up right on the heels of the initial send reads as spam,
		// even when the configured times say it is due.
		cooldown := time.Duration(service.cfg.FollowUpCooldown) * time.Minute
		if now.Sub(execution.SentAt) < cooldown {
			continue
		}
		if nowMinutes < followUpMinutes {
			continue
		}

		result.Results = append(result.Results, service.sendFollowUp(ctx, execution, reminder, now))
	}
}

// recoverMissedReply scans the audit log for inbound messages newer than the
// initial send that the reply handler never applied (crash, dropped job) and
// replays the transition. Returns nil when no qualifying reply exists.
func (service *serviceScheduler) recoverMissedReply(ctx context.Context, execution *domain.Execution, now time.Time) *domainScheduler.ActionResult {
	inbound, err := service.messageLog.ListInboundSince(ctx, execution.SentAt)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Failsafe scan failed for execution %s", execution.ID)
		return nil
	}

	for _, entry := range inbound {
		if !phone.Matches(entry.Phone, execution.Phone) {
			continue
		}
		status := domain.ExecutionStatusReplied
		daily := domain.DailyStatusReplied
		if intent.Classify(entry.Content, true).Completion {
			status = domain.ExecutionStatusCompleted
			daily = domain.DailyStatusCompleted
		}

		applied, err := service.executionRepo.MarkReplied(ctx, execution.ID, status, now)
		if err != nil {
			logrus.WithError(err).Errorf("[SCHEDULER] Failsafe transition failed for execution %s", execution.ID)
			return nil
		}
		if applied {
			if err := service.reminderRepo.RecordReply(ctx, execution.ReminderID, daily, entry.Content, now); err != nil {
				logrus.WithError(err).Warnf("[SCHEDULER] Failsafe: failed to record reply on reminder %s", execution.ReminderID)
			}
			logrus.Infof("[SCHEDULER] Recovered missed reply for execution %s from message log", execution.ID)
		}
		return &domainScheduler.ActionResult{
			ID:      execution.ID,
			Type:    domainScheduler.ActionFollowUp,
			Status:  domainScheduler.StatusSkipped,
			Phone:   execution.Phone,
			Message: "reply recovered from message log",
		}
	}
	return nil
}

func (service *serviceScheduler) skipFollowUp(ctx context.Context, execution *domain.Execution, reminder *domain.Reminder, daily domain.DailyStatus) {
	applied, err := service.executionRepo.MarkFollowUpSkipped(ctx, execution.ID)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Failed to skip follow-up for execution %s", execution.ID)
		return
	}
	if !applied {
		return
	}
	if err := service.reminderRepo.Deactivate(ctx, reminder.ID, daily); err != nil {
		logrus.WithError(err).Warnf("[SCHEDULER] Failed to deactivate reminder %s", reminder.ID)
	}
}

func (service *serviceScheduler) sendFollowUp(ctx context.Context, execution *domain.Execution, reminder *domain.Reminder, now time.Time) domainScheduler.ActionResult {
	action := domainScheduler.ActionResult{
		ID:    execution.ID,
		Type:  domainScheduler.ActionFollowUp,
		Phone: execution.Phone,
	}

	message := reminder.FollowUpMessage
	if message == "" {
		message = service.cfg.DefaultFollowUpMessage
	}

	sendResult, err := service.courier.SendText(ctx, execution.Phone, message, nil)

	logStatus := "sent"
	if err != nil || !sendResult.Success {
		logStatus = "failed"
	}
	service.appendLog(ctx, &domain.MessageLog{
		ID:          uuid.NewString(),
		ReminderID:  reminder.ID,
		Phone:       execution.Phone,
		Direction:   domain.DirectionOutbound,
		Kind:        domain.KindFollowUp,
		Content:     message,
		Status:      logStatus,
		RawResponse: sendResult.Raw,
		CreatedAt:   now,
	})

	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Transport failure sending follow-up for execution %s", execution.ID)
		action.Status = domainScheduler.StatusFailed
		action.Error = err.Error()
		return action
	}
	if !sendResult.Success {
		logrus.Errorf("[SCHEDULER] Gateway rejected follow-up for execution %s: %s", execution.ID, sendResult.ErrorText)
		action.Status = domainScheduler.StatusFailed
		action.Error = sendResult.ErrorText
		return action
	}

	applied, err := service.executionRepo.MarkFollowUpSent(ctx, execution.ID, now)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Failed to mark follow-up sent for execution %s", execution.ID)
		action.Status = domainScheduler.StatusError
		action.Error = err.Error()
		return action
	}
	if !applied {
		// A reply landed between the fresh read and the send. The follow-up
		// went out anyway; the execution keeps the reply outcome.
		logrus.Warnf("[SCHEDULER] Follow-up for execution %s raced a reply, state unchanged", execution.ID)
		action.Status = domainScheduler.StatusSkipped
		action.Message = "reply arrived during send"
		return action
	}

	if err := service.reminderRepo.Deactivate(ctx, reminder.ID, domain.DailyStatusMissed); err != nil {
		logrus.WithError(err).Warnf("[SCHEDULER] Failed to deactivate reminder %s after follow-up", reminder.ID)
	}

	logrus.Infof("[SCHEDULER] Sent follow-up to %s for execution %s", execution.Phone, execution.ID)
	action.Status = domainScheduler.StatusSent
	action.Message = message
	return action
}

func (service *serviceScheduler) appendLog(ctx context.Context, entry *domain.MessageLog) {
	if err := service.messageLog.Append(ctx, entry); err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Failed to append message log entry")
	}
}
