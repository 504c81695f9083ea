package services

import (
	"context"
	"errors"

	"github.com/nexusesi/notifier/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNoRecipient = errors.New("notification without recipient")

// NotificationFields is the construction data a builder hands to the store.
type NotificationFields struct {
	Title      string
	Message    string
	Type       string
	UserID     uint
	TaskID     *uint
	IncidentID *uint
	ProgressID *uint
	AlertID    *uint
	Metadata   models.NotificationMetadata
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// NotificationStore owns persistence of notifications.
type NotificationStore interface {
	Record(ctx context.Context, fields NotificationFields) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uint, page, limit int) (*NotificationPage, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (bool, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type GormNotificationStore struct {
	DB *gorm.DB
}

func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{DB: db}
}

func (s *GormNotificationStore) Record(ctx context.Context, fields NotificationFields) (*models.Notification, error) {
	if fields.UserID == 0 {
		return nil, ErrNoRecipient
	}

	notif := models.Notification{
		Title:      fields.Title,
		Message:    fields.Message,
		Type:       fields.Type,
		UserID:     fields.UserID,
		TaskID:     fields.TaskID,
		IncidentID: fields.IncidentID,
		ProgressID: fields.ProgressID,
		AlertID:    fields.AlertID,
		IsRead:     false,
		Metadata:   datatypes.NewJSONType(fields.Metadata),
	}
	if err := s.DB.WithContext(ctx).Create(&notif).Error; err != nil {
		return nil, err
	}
	return &notif, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// ListForUser returns newest first. page starts at 1.
func (s *GormNotificationStore) ListForUser(ctx context.Context, userID uint, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	db := s.DB.WithContext(ctx)
	result := &NotificationPage{Page: page, Limit: limit}

	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result.Notifications).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&result.Total).Error; err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Unread = unread

	return result, nil
}

func (s *GormNotificationStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var unread int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	return unread, err
}

// MarkRead flips is_read on a notification owned by userID. It reports false
// when no such notification exists.
func (s *GormNotificationStore) MarkRead(ctx context.Context, userID, notificationID uint) (bool, error) {
	var notif models.Notification
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, userID).First(&notif).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if notif.IsRead {
		return true, nil
	}

	if err := s.DB.WithContext(ctx).Model(&notif).Update("is_read", true).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormNotificationStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
