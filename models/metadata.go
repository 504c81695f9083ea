package models

// NotificationMetadata is a tagged union: exactly one snapshot is set,
// matching the notification's kind. Snapshots hold copied display values
// taken when the notification was created.
type NotificationMetadata struct {
	Alert     *AlertSnapshot     `json:"alert,omitempty"`
	Incident  *IncidentSnapshot  `json:"incident,omitempty"`
	Progress  *ProgressSnapshot  `json:"progress,omitempty"`
	Task      *TaskSnapshot      `json:"task,omitempty"`
	Committee *CommitteeSnapshot `json:"committee,omitempty"`
}

type AlertSnapshot struct {
	AlertType string `json:"alert_type"`
	TaskTitle string `json:"task_title,omitempty"`
}

type IncidentSnapshot struct {
	Status            string `json:"status"`
	TaskTitle         string `json:"task_title,omitempty"`
	ReportedBy        string `json:"reported_by,omitempty"`
	SolutionTaskTitle string `json:"solution_task_title,omitempty"`
	SolutionLeader    string `json:"solution_leader,omitempty"`
}

type ProgressSnapshot struct {
	TaskTitle  string `json:"task_title,omitempty"`
	ReportedBy string `json:"reported_by,omitempty"`
}

type TaskSnapshot struct {
	TaskTitle     string `json:"task_title"`
	Status        string `json:"status"`
	DueDate       string `json:"due_date,omitempty"`
	CommitteeName string `json:"committee_name,omitempty"`
}

type CommitteeSnapshot struct {
	CommitteeName string `json:"committee_name"`
	EventName     string `json:"event_name,omitempty"`
}

// Kind reports which snapshot is populated, or "" for none.
func (m NotificationMetadata) Kind() string {
	switch {
	case m.Alert != nil:
		return "alert"
	case m.Incident != nil:
		return "incident"
	case m.Progress != nil:
		return "progress"
	case m.Task != nil:
		return "task"
	case m.Committee != nil:
		return "committee"
	}
	return ""
}
