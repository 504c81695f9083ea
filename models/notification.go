package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationTypeAlert      = "alert"
	NotificationTypeProgress   = "progress"
	NotificationTypeIncident   = "incident"
	NotificationTypeTaskUpdate = "task_update"
	NotificationTypeInfo       = "info"
)

// Notification is the durable inbox entry for one user. Rows are only ever
// inserted by the notification service; is_read is flipped by the inbox API.
type Notification struct {
	ID         uint                                    `gorm:"primaryKey" json:"id"`
	Title      string                                  `gorm:"type:varchar(255);not null" json:"title"`
	Message    string                                  `gorm:"type:text;not null" json:"message"`
	Type       string                                  `gorm:"type:varchar(20);not null;index" json:"type"`
	UserID     uint                                    `gorm:"not null;index" json:"user_id"`
	TaskID     *uint                                   `gorm:"index" json:"task_id,omitempty"`
	IncidentID *uint                                   `gorm:"index" json:"incident_id,omitempty"`
	ProgressID *uint                                   `gorm:"index" json:"progress_id,omitempty"`
	AlertID    *uint                                   `gorm:"index" json:"alert_id,omitempty"`
	IsRead     bool                                    `gorm:"not null;default:false;index" json:"is_read"`
	Metadata   datatypes.JSONType[NotificationMetadata] `json:"metadata"`
	CreatedAt  time.Time                               `gorm:"not null" json:"created_at"`
}
