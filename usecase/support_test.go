package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-remind/core/config"
	"github.com/AzielCF/az-remind/pkg/clock"
	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/AzielCF/az-remind/reminders/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type courierCall struct {
	To      string
	Body    string
	Buttons []domain.Button
}

// fakeCourier records outbound sends and can simulate transport failures and
// gateway rejections.
type fakeCourier struct {
	mu           sync.Mutex
	calls        []courierCall
	transportErr error
	reject       bool
}

func (f *fakeCourier) SendText(_ context.Context, to, body string, buttons []domain.Button) (domain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, courierCall{To: to, Body: body, Buttons: buttons})
	if f.transportErr != nil {
		return domain.SendResult{}, f.transportErr
	}
	if f.reject {
		return domain.SendResult{Raw: `{"error":"rejected"}`, ErrorText: "whatsapp api status 400"}, nil
	}
	return domain.SendResult{Success: true, MessageID: "wamid." + uuid.NewString(), Raw: `{"ok":true}`}, nil
}

func (f *fakeCourier) sent() []courierCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]courierCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fixture struct {
	reminderRepo  *repository.ReminderGormRepository
	executionRepo *repository.ExecutionGormRepository
	messageLog    *repository.MessageLogGormRepository
	courier       *fakeCourier
	clk           *clock.LocalClock
	cfg           config.SchedulerConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	f := &fixture{
		reminderRepo:  repository.NewReminderGormRepository(db),
		executionRepo: repository.NewExecutionGormRepository(db),
		messageLog:    repository.NewMessageLogGormRepository(db),
		courier:       &fakeCourier{},
		clk:           clock.NewFixed(time.UTC),
		cfg: config.SchedulerConfig{
			FollowUpCooldown:       2,
			ConfirmationText:       "Great! Marked as completed ✔",
			DefaultFollowUpMessage: "Did you complete your habit?",
		},
	}

	ctx := context.Background()
	require.NoError(t, f.reminderRepo.Init(ctx))
	require.NoError(t, f.executionRepo.Init(ctx))
	require.NoError(t, f.messageLog.Init(ctx))
	return f
}

func (f *fixture) newScheduler() *serviceScheduler {
	return NewSchedulerService(
		f.reminderRepo, f.executionRepo, f.messageLog, f.courier, f.clk, f.cfg, nil,
	).(*serviceScheduler)
}

func (f *fixture) newInbound() *serviceInbound {
	return NewInboundService(
		f.reminderRepo, f.executionRepo, f.messageLog, f.courier, f.clk, f.cfg,
	).(*serviceInbound)
}

func (f *fixture) seedReminder(t *testing.T, phone, reminderTime, followUpTime string) *domain.Reminder {
	t.Helper()
	now := time.Now().UTC()
	reminder := &domain.Reminder{
		ID:           uuid.NewString(),
		Phone:        phone,
		Title:        "Morning walk",
		Message:      "Time for your morning walk!",
		ReminderTime: reminderTime,
		FollowUpTime: followUpTime,
		IsActive:     true,
		DailyStatus:  domain.DailyStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.reminderRepo.Create(context.Background(), reminder))
	return reminder
}

func (f *fixture) seedExecution(t *testing.T, reminder *domain.Reminder, date string, sentAt time.Time) *domain.Execution {
	t.Helper()
	execution := &domain.Execution{
		ID:             uuid.NewString(),
		ReminderID:     reminder.ID,
		Phone:          reminder.Phone,
		Date:           date,
		Status:         domain.ExecutionStatusSent,
		SentAt:         sentAt,
		FollowUpStatus: domain.FollowUpPending,
		CreatedAt:      sentAt,
		UpdatedAt:      sentAt,
	}
	created, err := f.executionRepo.CreateIfAbsent(context.Background(), execution)
	require.NoError(t, err)
	require.True(t, created)
	return execution
}
