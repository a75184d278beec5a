package repository

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-remind/reminders/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newTestExecutionRepo(t *testing.T) *ExecutionGormRepository {
	t.Helper()
	repo := NewExecutionGormRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newExecution(reminderID, date string) *domain.Execution {
	now := time.Now().UTC()
	return &domain.Execution{
		ID:             uuid.NewString(),
		ReminderID:     reminderID,
		Phone:          "919876543210",
		Date:           date,
		Status:         domain.ExecutionStatusSent,
		SentAt:         now,
		FollowUpStatus: domain.FollowUpPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateIfAbsent_OneRowPerReminderAndDay(t *testing.T) {
	repo := newTestExecutionRepo(t)
	ctx := context.Background()

	first := newExecution("rem-1", "2026-08-28")
	created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	// Same (reminder, day) from a concurrent tick loses silently.
	second := newExecution("rem-1", "2026-08-28")
	created, err = repo.CreateIfAbsent(ctx, second)
	require.NoError(t, err)
	require.False(t, created)

	stored, err := repo.GetByReminderAndDate(ctx, "rem-1", "2026-08-28")
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)

	// A different day is a fresh slot.
	created, err = repo.CreateIfAbsent(ctx, newExecution("rem-1", "2026-08-29"))
	require.NoError(t, err)
	require.True(t, created)
}

func TestMarkReplied_AppliesOnceAndCancelsFollowUp(t *testing.T) {
	repo := newTestExecutionRepo(t)
	ctx := context.Background()

	execution := newExecution("rem-1", "2026-08-28")
	_, err := repo.CreateIfAbsent(ctx, execution)
	require.NoError(t, err)

	at := time.Now().UTC()
	applied, err := repo.MarkReplied(ctx, execution.ID, domain.ExecutionStatusCompleted, at)
	require.NoError(t, err)
	require.True(t, applied)

	// Duplicate webhook delivery converges without re-applying.
	applied, err = repo.MarkReplied(ctx, execution.ID, domain.ExecutionStatusReplied, at)
	require.NoError(t, err)
	require.False(t, applied)

	fresh, err := repo.GetFresh(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, fresh.Status)
	require.Equal(t, domain.FollowUpCancelledByUser, fresh.FollowUpStatus)
	require.NotNil(t, fresh.ReplyReceivedAt)
}

func TestMarkReplied_KeepsSentFollowUpStatus(t *testing.T) {
	repo := newTestExecutionRepo(t)
	ctx := context.Background()

	execution := newExecution("rem-1", "2026-08-28")
	_, err := repo.CreateIfAbsent(ctx, execution)
	require.NoError(t, err)

	at := time.Now().UTC()
	applied, err := repo.MarkFollowUpSent(ctx, execution.ID, at)
	require.NoError(t, err)
	require.True(t, applied)

	// A reply after the follow-up still resolves the day, but the follow-up
	// record keeps saying it went out.
	applied, err = repo.MarkReplied(ctx, execution.ID, domain.ExecutionStatusReplied, at)
	require.NoError(t, err)
	require.True(t, applied)

	fresh, err := repo.GetFresh(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusReplied, fresh.Status)
	require.Equal(t, domain.FollowUpSent, fresh.FollowUpStatus)
}

func TestFollowUpTransitions_GuardedByCurrentState(t *testing.T) {
	repo := newTestExecutionRepo(t)
	ctx := context.Background()

	execution := newExecution("rem-1", "2026-08-28")
	_, err := repo.CreateIfAbsent(ctx, execution)
	require.NoError(t, err)

	at := time.Now().UTC()
	applied, err := repo.MarkReplied(ctx, execution.ID, domain.ExecutionStatusReplied, at)
	require.NoError(t, err)
	require.True(t, applied)

	// After a reply neither follow-up transition may fire.
	applied, err = repo.MarkFollowUpSent(ctx, execution.ID, at)
	require.NoError(t, err)
	require.False(t, applied)

	applied, err = repo.MarkFollowUpSkipped(ctx, execution.ID)
	require.NoError(t, err)
	require.False(t, applied)

	fresh, err := repo.GetFresh(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FollowUpCancelledByUser, fresh.FollowUpStatus)
	require.Nil(t, fresh.FollowUpSentAt)
}

func TestListPendingFollowUps_FiltersResolvedRows(t *testing.T) {
	repo := newTestExecutionRepo(t)
	ctx := context.Background()
	at := time.Now().UTC()

	pending := newExecution("rem-1", "2026-08-28")
	replied := newExecution("rem-2", "2026-08-28")
	sent := newExecution("rem-3", "2026-08-28")
	otherDay := newExecution("rem-4", "2026-08-27")

	for _, execution := range []*domain.Execution{pending, replied, sent, otherDay} {
		_, err := repo.CreateIfAbsent(ctx, execution)
		require.NoError(t, err)
	}
	_, err := repo.MarkReplied(ctx, replied.ID, domain.ExecutionStatusReplied, at)
	require.NoError(t, err)
	_, err = repo.MarkFollowUpSent(ctx, sent.ID, at)
	require.NoError(t, err)

	result, err := repo.ListPendingFollowUps(ctx, "2026-08-28")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, pending.ID, result[0].ID)
}
