package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AzielCF/az-remind/reminders/domain"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type reminderModel struct {
	ID              string         `gorm:"primaryKey;column:id"`
	Phone           string         `gorm:"column:phone;not null;index"`
	Title           string         `gorm:"column:title;not null"`
	Message         string         `gorm:"column:message;not null"`
	ReminderTime    string         `gorm:"column:reminder_time;not null"`
	FollowUpMessage sql.NullString `gorm:"column:follow_up_message"`
	FollowUpTime    sql.NullString `gorm:"column:follow_up_time"`
	IsActive        bool           `gorm:"column:is_active;default:true;index"`
	LastSentAt      *time.Time     `gorm:"column:last_sent_at"`
	DailyStatus     string         `gorm:"column:daily_status;default:'pending'"`
	ReplyText       sql.NullString `gorm:"column:reply_text"`
	LastRepliedAt   *time.Time     `gorm:"column:last_replied_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null"`
}

func (reminderModel) TableName() string { return "reminders" }

// --- Repository Implementation ---

type ReminderGormRepository struct {
	db *gorm.DB
}

func NewReminderGormRepository(db *gorm.DB) *ReminderGormRepository {
	return &ReminderGormRepository{db: db}
}

func (r *ReminderGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&reminderModel{})
}

func (r *ReminderGormRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	model := toReminderModel(reminder)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	reminder.CreatedAt = model.CreatedAt
	reminder.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ReminderGormRepository) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	var m reminderModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, err
	}
	return fromReminderModel(m), nil
}

func (r *ReminderGormRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	model := toReminderModel(reminder)
	res := r.db.WithContext(ctx).Model(&reminderModel{}).Where("id = ?", reminder.ID).
		Select("phone", "title", "message", "reminder_time", "follow_up_message",
			"follow_up_time", "is_active", "daily_status").
		Updates(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&reminderModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderGormRepository) List(ctx context.Context) ([]*domain.Reminder, error) {
	var models []reminderModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromReminderModels(models), nil
}

func (r *ReminderGormRepository) ListActive(ctx context.Context) ([]*domain.Reminder, error) {
	var models []reminderModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return fromReminderModels(models), nil
}

func (r *ReminderGormRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&reminderModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"last_sent_at": at,
			"daily_status": string(domain.DailyStatusSent),
		}).Error
}

func (r *ReminderGormRepository) Deactivate(ctx context.Context, id string, status domain.DailyStatus) error {
	return r.db.WithContext(ctx).Model(&reminderModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_active":    false,
			"daily_status": string(status),
		}).Error
}

func (r *ReminderGormRepository) RecordReply(ctx context.Context, id string, status domain.DailyStatus, replyText string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&reminderModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_active":       false,
			"daily_status":    string(status),
			"reply_text":      replyText,
			"last_replied_at": at,
		}).Error
}

// --- Converters ---

func toReminderModel(reminder *domain.Reminder) reminderModel {
	return reminderModel{
		ID:              reminder.ID,
		Phone:           reminder.Phone,
		Title:           reminder.Title,
		Message:         reminder.Message,
		ReminderTime:    reminder.ReminderTime,
		FollowUpMessage: toNullString(reminder.FollowUpMessage),
		FollowUpTime:    toNullString(reminder.FollowUpTime),
		IsActive:        reminder.IsActive,
		LastSentAt:      reminder.LastSentAt,
		DailyStatus:     string(reminder.DailyStatus),
		ReplyText:       toNullString(reminder.ReplyText),
		LastRepliedAt:   reminder.LastRepliedAt,
		CreatedAt:       reminder.CreatedAt,
		UpdatedAt:       reminder.UpdatedAt,
	}
}

func fromReminderModel(m reminderModel) *domain.Reminder {
	return &domain.Reminder{
		ID:              m.ID,
		Phone:           m.Phone,
		Title:           m.Title,
		Message:         m.Message,
		ReminderTime:    m.ReminderTime,
		FollowUpMessage: m.FollowUpMessage.String,
		FollowUpTime:    m.FollowUpTime.String,
		IsActive:        m.IsActive,
		LastSentAt:      m.LastSentAt,
		DailyStatus:     domain.DailyStatus(m.DailyStatus),
		ReplyText:       m.ReplyText.String,
		LastRepliedAt:   m.LastRepliedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromReminderModels(models []reminderModel) []*domain.Reminder {
	out := make([]*domain.Reminder, 0, len(models))
	for _, m := range models {
		out = append(out, fromReminderModel(m))
	}
	return out
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
