package models

import "time"

// Event is a seedbed event. The coordinator receives incident and progress
// notifications for every task of the event.
type Event struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	CoordinatorID *uint  `gorm:"index" json:"coordinator_id,omitempty"`
	Coordinator   *User  `gorm:"foreignKey:CoordinatorID" json:"coordinator,omitempty"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Committee struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	EventID   uint   `gorm:"not null;index" json:"event_id"`
	Event     *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
