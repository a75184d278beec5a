package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-remind/reminders/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type executionModel struct {
	ID              string     `gorm:"primaryKey;column:id"`
	ReminderID      string     `gorm:"column:reminder_id;not null;uniqueIndex:idx_reminder_date"`
	Phone           string     `gorm:"column:phone;not null;index:idx_phone_date"`
	Date            string     `gorm:"column:date;not null;uniqueIndex:idx_reminder_date;index:idx_phone_date"`
	Status          string     `gorm:"column:status;not null;default:'sent';index"`
	SentAt          time.Time  `gorm:"column:sent_at;not null"`
	ReplyReceivedAt *time.Time `gorm:"column:reply_received_at"`
	FollowUpStatus  string     `gorm:"column:follow_up_status;not null;default:'pending';index"`
	FollowUpSentAt  *time.Time `gorm:"column:follow_up_sent_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null"`
}

func (executionModel) TableName() string { return "reminder_executions" }

type ExecutionGormRepository struct {
	db *gorm.DB
}

func NewExecutionGormRepository(db *gorm.DB) *ExecutionGormRepository {
	return &ExecutionGormRepository{db: db}
}

func (r *ExecutionGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&executionModel{})
}

// CreateIfAbsent is the single irreversible step per (reminder, day). The
// unique index on (reminder_id, date) makes concurrent drivers converge to
// one row; the loser observes RowsAffected == 0.
func (r *ExecutionGormRepository) CreateIfAbsent(ctx context.Context, execution *domain.Execution) (bool, error) {
	model := toExecutionModel(execution)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reminder_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExecutionGormRepository) Upsert(ctx context.Context, execution *domain.Execution) (*domain.Execution, error) {
	if _, err := r.CreateIfAbsent(ctx, execution); err != nil {
		return nil, err
	}
	return r.GetByReminderAndDate(ctx, execution.ReminderID, execution.Date)
}

func (r *ExecutionGormRepository) GetFresh(ctx context.Context, id string) (*domain.Execution, error) {
	var m executionModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, err
	}
	return fromExecutionModel(m), nil
}

func (r *ExecutionGormRepository) GetByReminderAndDate(ctx context.Context, reminderID, date string) (*domain.Execution, error) {
	var m executionModel
	err := r.db.WithContext(ctx).First(&m, "reminder_id = ? AND date = ?", reminderID, date).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, err
	}
	return fromExecutionModel(m), nil
}

func (r *ExecutionGormRepository) ListByDate(ctx context.Context, date string) ([]*domain.Execution, error) {
	var models []executionModel
	if err := r.db.WithContext(ctx).Where("date = ?", date).Find(&models).Error; err != nil {
		return nil, err
	}
	return fromExecutionModels(models), nil
}

func (r *ExecutionGormRepository) ListPendingFollowUps(ctx context.Context, date string) ([]*domain.Execution, error) {
	var models []executionModel
	err := r.db.WithContext(ctx).
		Where("date = ? AND status = ? AND follow_up_status = ?",
			date, string(domain.ExecutionStatusSent), string(domain.FollowUpPending)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromExecutionModels(models), nil
}

// MarkReplied is a compare-and-set on status: it only applies while the row
// still says "sent", so duplicate webhook deliveries and the failsafe scan
// converge on the first writer's result. The pending follow-up is cancelled
// in the same statement.
func (r *ExecutionGormRepository) MarkReplied(ctx context.Context, id string, status domain.ExecutionStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&executionModel{}).
		Where("id = ? AND status = ?", id, string(domain.ExecutionStatusSent)).
		Updates(map[string]any{
			"status":            string(status),
			"reply_received_at": at,
			"follow_up_status": gorm.Expr(
				"CASE WHEN follow_up_status = ? THEN ? ELSE follow_up_status END",
				string(domain.FollowUpPending), string(domain.FollowUpCancelledByUser)),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExecutionGormRepository) MarkFollowUpSent(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.casFollowUp(ctx, id, map[string]any{
		"follow_up_status":  string(domain.FollowUpSent),
		"follow_up_sent_at": at,
	})
}

func (r *ExecutionGormRepository) MarkFollowUpSkipped(ctx context.Context, id string) (bool, error) {
	return r.casFollowUp(ctx, id, map[string]any{
		"follow_up_status": string(domain.FollowUpSkipped),
	})
}

func (r *ExecutionGormRepository) casFollowUp(ctx context.Context, id string, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&executionModel{}).
		Where("id = ? AND status = ? AND follow_up_status = ?",
			id, string(domain.ExecutionStatusSent), string(domain.FollowUpPending)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ExecutionGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&executionModel{}, "id = ?", id).Error
}

// --- Converters ---

func toExecutionModel(execution *domain.Execution) executionModel {
	return executionModel{
		ID:              execution.ID,
		ReminderID:      execution.ReminderID,
		Phone:           execution.Phone,
		Date:            execution.Date,
		Status:          string(execution.Status),
		SentAt:          execution.SentAt,
		ReplyReceivedAt: execution.ReplyReceivedAt,
		FollowUpStatus:  string(execution.FollowUpStatus),
		FollowUpSentAt:  execution.FollowUpSentAt,
		CreatedAt:       execution.CreatedAt,
		UpdatedAt:       execution.UpdatedAt,
	}
}

func fromExecutionModel(m executionModel) *domain.Execution {
	return &domain.Execution{
		ID:              m.ID,
		ReminderID:      m.ReminderID,
		Phone:           m.Phone,
		Date:            m.Date,
		Status:          domain.ExecutionStatus(m.Status),
		SentAt:          m.SentAt,
		ReplyReceivedAt: m.ReplyReceivedAt,
		FollowUpStatus:  domain.FollowUpStatus(m.FollowUpStatus),
		FollowUpSentAt:  m.FollowUpSentAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromExecutionModels(models []executionModel) []*domain.Execution {
	out := make([]*domain.Execution, 0, len(models))
	for _, m := range models {
		out = append(out, fromExecutionModel(m))
	}
	return out
}
