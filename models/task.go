package models

import "time"

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusDelayed    = "delayed"
)

type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	EventID     *uint      `gorm:"index" json:"event_id,omitempty"`
	Event       *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CommitteeID *uint      `gorm:"index" json:"committee_id,omitempty"`
	Committee   *Committee `gorm:"foreignKey:CommitteeID" json:"committee,omitempty"`
	AssignedTo  *uint      `gorm:"index" json:"assigned_to,omitempty"`
	Assignee    *User      `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CoordinatorID resolves the coordinator through the task's event, or through
// its committee's event. Relations must be preloaded.
func (t *Task) CoordinatorID() *uint {
	if t.Event != nil && t.Event.CoordinatorID != nil {
		return t.Event.CoordinatorID
	}
	if t.Committee != nil && t.Committee.Event != nil {
		return t.Committee.Event.CoordinatorID
	}
	return nil
}
