package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domainReminder "github.com/AzielCF/az-remind/domains/reminder"
	"github.com/AzielCF/az-remind/pkg/clock"
	pkgError "github.com/AzielCF/az-remind/pkg/error"
	"github.com/AzielCF/az-remind/pkg/phone"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/AzielCF/az-remind/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type serviceReminder struct {
	reminderRepo  domain.ReminderRepository
	executionRepo domain.ExecutionRepository
	clk           *clock.LocalClock
}

func NewReminderService(reminderRepo domain.ReminderRepository, executionRepo domain.ExecutionRepository, clk *clock.LocalClock) domainReminder.IReminderUsecase {
	return &serviceReminder{
		reminderRepo:  reminderRepo,
		executionRepo: executionRepo,
		clk:           clk,
	}
}

func (service *serviceReminder) Create(ctx context.Context, request domainReminder.CreateRequest) (*domain.Reminder, error) {
	if err := validations.ValidateCreateReminder(ctx, request); err != nil {
		return nil, err
	}

	now := service.clk.Now()
	reminder := &domain.Reminder{
		ID:              uuid.NewString(),
		Phone:           phone.EnsureCountryCode(request.Phone),
		Title:           strings.TrimSpace(request.Title),
		Message:         request.Message,
		ReminderTime:    request.ReminderTime,
		FollowUpMessage: request.FollowUpMessage,
		FollowUpTime:    request.FollowUpTime,
		IsActive:        true,
		DailyStatus:     domain.DailyStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := service.reminderRepo.Create(ctx, reminder); err != nil {
		logrus.WithError(err).Error("[REMINDER] Failed to create reminder")
		return nil, err
	}

	logrus.Infof("[REMINDER] Created reminder %s for %s at %s", reminder.ID, reminder.Phone, reminder.ReminderTime)
	return reminder, nil
}

func (service *serviceReminder) Update(ctx context.Context, request domainReminder.UpdateRequest) (*domain.Reminder, error) {
	if err := validations.ValidateUpdateReminder(ctx, request); err != nil {
		return nil, err
	}

	reminder, err := service.reminderRepo.GetByID(ctx, request.ID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			return nil, pkgError.NotFoundError("reminder not found")
		}
		return nil, err
	}

	if request.Phone != nil {
		reminder.Phone = phone.EnsureCountryCode(*request.Phone)
	}
	if request.Title != nil {
		reminder.Title = strings.TrimSpace(*request.Title)
	}
	if request.Message != nil {
		reminder.Message = *request.Message
	}
	if request.ReminderTime != nil {
		reminder.ReminderTime = *request.ReminderTime
	}
	if request.FollowUpMessage != nil {
		reminder.FollowUpMessage = *request.FollowUpMessage
	}
	if request.FollowUpTime != nil {
		reminder.FollowUpTime = *request.FollowUpTime
	}
	if request.IsActive != nil {
		reminder.IsActive = *request.IsActive
	}

	now := service.clk.Now()
	if request.DailyStatus != nil {
		reminder.DailyStatus = domain.DailyStatus(*request.DailyStatus)
		if err := service.syncForcedDailyStatus(ctx, reminder, now); err != nil {
			return nil, err
		}
	}
	reminder.UpdatedAt = now

	if err := service.reminderRepo.Update(ctx, reminder); err != nil {
		logrus.WithError(err).Errorf("[REMINDER] Failed to update reminder %s", reminder.ID)
		return nil, err
	}
	return reminder, nil
}

// syncForcedDailyStatus propagates an admin-forced terminal daily status into
// today's execution so a still pending follow-up gets cancelled. The reminder
// row alone is only a mirror; without this the driver would still fire.
func (service *serviceReminder) syncForcedDailyStatus(ctx context.Context, reminder *domain.Reminder, now time.Time) error {
	var status domain.ExecutionStatus
	switch reminder.DailyStatus {
	case domain.DailyStatusCompleted:
		status = domain.ExecutionStatusCompleted
	case domain.DailyStatusReplied:
		status = domain.ExecutionStatusReplied
	default:
		return nil
	}

	execution, err := service.executionRepo.GetByReminderAndDate(ctx, reminder.ID, service.clk.DateKey(now))
	if err != nil {
		if errors.Is(err, domain.ErrExecutionNotFound) {
			return nil
		}
		return err
	}

	applied, err := service.executionRepo.MarkReplied(ctx, execution.ID, status, now)
	if err != nil {
		return err
	}
	if applied {
		logrus.Infof("[REMINDER] Forced daily status %s onto execution %s", status, execution.ID)
	}
	return nil
}

func (service *serviceReminder) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgError.ValidationError("id: cannot be blank.")
	}
	err := service.reminderRepo.Delete(ctx, id)
	if errors.Is(err, domain.ErrReminderNotFound) {
		return pkgError.NotFoundError("reminder not found")
	}
	return err
}

func (service *serviceReminder) Get(ctx context.Context, id string) (*domain.Reminder, error) {
	reminder, err := service.reminderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			return nil, pkgError.NotFoundError("reminder not found")
		}
		return nil, err
	}
	return reminder, nil
}

func (service *serviceReminder) ListWithTodayStatus(ctx context.Context) ([]domainReminder.View, error) {
	reminders, err := service.reminderRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	today := service.clk.DateKey(service.clk.Now())
	executions, err := service.executionRepo.ListByDate(ctx, today)
	if err != nil {
		return nil, err
	}
	byReminder := make(map[string]*domain.Execution, len(executions))
	for _, execution := range executions {
		byReminder[execution.ReminderID] = execution
	}

	views := make([]domainReminder.View, 0, len(reminders))
	for _, reminder := range reminders {
		view := domainReminder.View{Reminder: *reminder}
		if execution, ok := byReminder[reminder.ID]; ok {
			view.TodayExecution = execution
			view.DailyStatus = dailyStatusOf(execution)
		} else {
			// No execution today means nothing sent yet, whatever the
			// stale mirror on the reminder row says.
			view.DailyStatus = domain.DailyStatusPending
		}
		views = append(views, view)
	}
	return views, nil
}

func (service *serviceReminder) BlockFollowUp(ctx context.Context, request domainReminder.BlockFollowUpRequest) (domainReminder.BlockFollowUpResponse, error) {
	var response domainReminder.BlockFollowUpResponse
	if err := validations.ValidateBlockFollowUp(ctx, request); err != nil {
		return response, err
	}

	now := service.clk.Now()
	executions, err := service.executionRepo.ListByDate(ctx, service.clk.DateKey(now))
	if err != nil {
		return response, err
	}

	for _, execution := range executions {
		if !phone.Matches(execution.Phone, request.Phone) {
			continue
		}
		if request.ReminderID != "" && execution.ReminderID != request.ReminderID {
			continue
		}
		applied, err := service.executionRepo.MarkReplied(ctx, execution.ID, domain.ExecutionStatusCompleted, now)
		if err != nil {
			return response, err
		}
		if !applied {
			continue
		}
		if err := service.reminderRepo.RecordReply(ctx, execution.ReminderID, domain.DailyStatusCompleted, "", now); err != nil {
			logrus.WithError(err).Warnf("[REMINDER] Block follow-up: failed to record on reminder %s", execution.ReminderID)
		}
		fresh, err := service.executionRepo.GetFresh(ctx, execution.ID)
		if err == nil {
			execution = fresh
		}
		response.Blocked++
		response.Executions = append(response.Executions, execution)
	}

	logrus.Infof("[REMINDER] Blocked follow-ups for %s: %d execution(s)", request.Phone, response.Blocked)
	return response, nil
}

// dailyStatusOf recomputes the display status from the execution record.
func dailyStatusOf(execution *domain.Execution) domain.DailyStatus {
	switch execution.Status {
	case domain.ExecutionStatusReplied:
		return domain.DailyStatusReplied
	case domain.ExecutionStatusCompleted:
		return domain.DailyStatusCompleted
	case domain.ExecutionStatusFailed:
		return domain.DailyStatusFailed
	}
	if execution.FollowUpStatus == domain.FollowUpSent {
		return domain.DailyStatusMissed
	}
	return domain.DailyStatusSent
}
