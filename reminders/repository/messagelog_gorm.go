package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/AzielCF/az-remind/reminders/domain"
	"gorm.io/gorm"
)

type messageLogModel struct {
	ID          string         `gorm:"primaryKey;column:id"`
	ReminderID  sql.NullString `gorm:"column:reminder_id;index"`
	Phone       string         `gorm:"column:phone;not null;index"`
	Direction   string         `gorm:"column:direction;not null;index:idx_direction_created"`
	Kind        string         `gorm:"column:kind;not null"`
	Content     string         `gorm:"column:content"`
	Status      string         `gorm:"column:status;not null"`
	RawResponse sql.NullString `gorm:"column:raw_response"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null;index:idx_direction_created"`
}

func (messageLogModel) TableName() string { return "message_logs" }

type MessageLogGormRepository struct {
	db *gorm.DB
}

func NewMessageLogGormRepository(db *gorm.DB) *MessageLogGormRepository {
	return &MessageLogGormRepository{db: db}
}

func (r *MessageLogGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&messageLogModel{})
}

func (r *MessageLogGormRepository) Append(ctx context.Context, log *domain.MessageLog) error {
	model := messageLogModel{
		ID:          log.ID,
		ReminderID:  toNullString(log.ReminderID),
		Phone:       log.Phone,
		Direction:   string(log.Direction),
		Kind:        string(log.Kind),
		Content:     log.Content,
		Status:      log.Status,
		RawResponse: toNullString(log.RawResponse),
		CreatedAt:   log.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	log.CreatedAt = model.CreatedAt
	return nil
}

func (r *MessageLogGormRepository) ListInboundSince(ctx context.Context, since time.Time) ([]*domain.MessageLog, error) {
	var models []messageLogModel
	err := r.db.WithContext(ctx).
		Where("direction = ? AND created_at > ?", string(domain.DirectionInbound), since).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromMessageLogModels(models), nil
}

func (r *MessageLogGormRepository) ListByPhone(ctx context.Context, phone string, limit int) ([]*domain.MessageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []messageLogModel
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromMessageLogModels(models), nil
}

func fromMessageLogModels(models []messageLogModel) []*domain.MessageLog {
	out := make([]*domain.MessageLog, 0, len(models))
	for _, m := range models {
		out = append(out, &domain.MessageLog{
			ID:          m.ID,
			ReminderID:  m.ReminderID.String,
			Phone:       m.Phone,
			Direction:   domain.MessageDirection(m.Direction),
			Kind:        domain.MessageKind(m.Kind),
			Content:     m.Content,
			Status:      m.Status,
			RawResponse: m.RawResponse.String,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
