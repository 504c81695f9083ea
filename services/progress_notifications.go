package services

import (
	"context"
	"fmt"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
)

type progressUpdatedPayload struct {
	Notification notificationPayload `json:"notification"`
	Progress     struct {
		ID          uint   `json:"id"`
		Description string `json:"description"`
		TaskTitle   string `json:"task_title"`
		ReportedBy  string `json:"reported_by"`
		CreatedAt   string `json:"created_at"`
	} `json:"progress"`
}

// NotifyProgressUpdated tells the event coordinator about a new progress
// report. Dispatch is always attempted once the coordinator is known; the
// dispatcher drops it when broadcasting is unavailable.
func (s *NotificationService) NotifyProgressUpdated(ctx context.Context, progressID uint) (*models.Notification, error) {
	const op = "progress.updated"

	var progress models.Progress
	found, err := s.first(ctx, &progress, progressID, "Task.Event", "Task.Committee.Event", "User")
	if err != nil {
		return nil, s.lookupFailed(op, progressID, err, SwallowErrors)
	}
	if !found || progress.Task == nil {
		s.skipped(op, "progress or task not found", logrus.Fields{"progress_id": progressID})
		return nil, nil
	}

	coordinatorID := progress.Task.CoordinatorID()
	if coordinatorID == nil {
		s.skipped(op, "no coordinator for task", logrus.Fields{"progress_id": progressID, "task_id": progress.TaskID})
		return nil, nil
	}

	reporter := userName(progress.User)
	notif, err := s.record(ctx, op, NotificationFields{
		Title:      "Nuevo progreso reportado",
		Message:    fmt.Sprintf("%s registró un avance en la tarea \"%s\"", fallback(reporter, "Un integrante"), progress.Task.Title),
		Type:       models.NotificationTypeProgress,
		UserID:     *coordinatorID,
		TaskID:     idPtr(progress.TaskID),
		ProgressID: idPtr(progress.ID),
		Metadata: models.NotificationMetadata{Progress: &models.ProgressSnapshot{
			TaskTitle:  progress.Task.Title,
			ReportedBy: reporter,
		}},
	}, SwallowErrors)
	if notif == nil {
		return nil, err
	}

	payload := progressUpdatedPayload{Notification: newNotificationPayload(notif)}
	payload.Progress.ID = progress.ID
	payload.Progress.Description = progress.Description
	payload.Progress.TaskTitle = progress.Task.Title
	payload.Progress.ReportedBy = reporter
	payload.Progress.CreatedAt = formatTime(progress.CreatedAt)

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(*coordinatorID),
		Event:   broadcast.EventProgressUpdated,
		Payload: payload,
	})
	return notif, nil
}
