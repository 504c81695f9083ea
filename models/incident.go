package models

import "time"

const (
	IncidentStatusReported   = "reported"
	IncidentStatusInProgress = "in_progress"
	IncidentStatusResolved   = "resolved"
)

type Incident struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Description    string     `gorm:"type:text;not null" json:"description"`
	Status         string     `gorm:"type:varchar(20);not null;default:'reported';index" json:"status"`
	TaskID         uint       `gorm:"not null;index" json:"task_id"`
	Task           *Task      `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	ReportedBy     *uint      `gorm:"index" json:"reported_by,omitempty"`
	Reporter       *User      `gorm:"foreignKey:ReportedBy" json:"reporter,omitempty"`
	SolutionTaskID *uint      `json:"solution_task_id,omitempty"`
	SolutionTask   *Task      `gorm:"foreignKey:SolutionTaskID" json:"solution_task,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Progress is a progress report logged by a member against a task.
type Progress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	TaskID      uint      `gorm:"not null;index" json:"task_id"`
	Task        *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Progress) TableName() string { return "progress" }

type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"` // preventive | critical
	TaskID    *uint     `gorm:"index" json:"task_id,omitempty"`
	Task      *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
