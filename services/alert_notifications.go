package services

import (
	"context"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
)

type alertPayload struct {
	ID        uint   `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	TaskTitle string `json:"task_title"`
	CreatedAt string `json:"created_at"`
	IsRead    bool   `json:"is_read"`
}

type alertCreatedPayload struct {
	Notification notificationPayload `json:"notification"`
	Alert        alertPayload        `json:"alert"`
}

// NotifyAlertCreated notifies the alert's target user. Unlike the other
// builders it stores nothing when broadcasting is unavailable.
func (s *NotificationService) NotifyAlertCreated(ctx context.Context, alertID uint) (*models.Notification, error) {
	const op = "alert.created"

	if !s.Dispatcher.Enabled() {
		s.skipped(op, "broadcasting unavailable", logrus.Fields{"alert_id": alertID})
		return nil, nil
	}

	var alert models.Alert
	found, err := s.first(ctx, &alert, alertID, "Task")
	if err != nil {
		return nil, s.lookupFailed(op, alertID, err, SwallowErrors)
	}
	if !found {
		s.skipped(op, "alert not found", logrus.Fields{"alert_id": alertID})
		return nil, nil
	}

	title := "Alerta preventiva"
	if alert.Type == "critical" {
		title = "Alerta crítica"
	}

	notif, err := s.record(ctx, op, NotificationFields{
		Title:   title,
		Message: alert.Message,
		Type:    models.NotificationTypeAlert,
		UserID:  alert.UserID,
		TaskID:  alert.TaskID,
		AlertID: idPtr(alert.ID),
		Metadata: models.NotificationMetadata{Alert: &models.AlertSnapshot{
			AlertType: alert.Type,
			TaskTitle: taskTitle(alert.Task),
		}},
	}, SwallowErrors)
	if notif == nil {
		return nil, err
	}

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(alert.UserID),
		Event:   broadcast.EventAlertCreated,
		Payload: alertCreatedPayload{
			Notification: newNotificationPayload(notif),
			Alert: alertPayload{
				ID:        alert.ID,
				Message:   alert.Message,
				Type:      alert.Type,
				TaskTitle: taskTitle(alert.Task),
				CreatedAt: formatTime(alert.CreatedAt),
				IsRead:    alert.IsRead,
			},
		},
	})

	return notif, nil
}
