package services

import (
	"context"
	"fmt"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
)

type taskAssignedPayload struct {
	Notification notificationPayload `json:"notification"`
	Task         struct {
		ID            uint    `json:"id"`
		Title         string  `json:"title"`
		Status        string  `json:"status"`
		DueDate       *string `json:"due_date"`
		CommitteeName string  `json:"committee_name"`
	} `json:"task"`
}

type committeeAssignedPayload struct {
	Notification notificationPayload `json:"notification"`
	Committee    struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		EventName string `json:"event_name"`
	} `json:"committee"`
}

// NotifyTaskAssigned -> tells the assignee about a task assigned to them
func (s *NotificationService) NotifyTaskAssigned(ctx context.Context, taskID uint) (*models.Notification, error) {
	const op = "task.assigned"

	var task models.Task
	found, err := s.first(ctx, &task, taskID, "Committee")
	if err != nil {
		return nil, s.lookupFailed(op, taskID, err, SwallowErrors)
	}
	if !found || task.AssignedTo == nil {
		s.skipped(op, "task or assignee not found", logrus.Fields{"task_id": taskID})
		return nil, nil
	}

	var committeeName string
	if task.Committee != nil {
		committeeName = task.Committee.Name
	}
	dueDate := formatTimePtr(task.DueDate)

	snapshot := &models.TaskSnapshot{
		TaskTitle:     task.Title,
		Status:        task.Status,
		CommitteeName: committeeName,
	}
	if dueDate != nil {
		snapshot.DueDate = *dueDate
	}

	notif, err := s.record(ctx, op, NotificationFields{
		Title:    "Nueva tarea asignada",
		Message:  fmt.Sprintf("Se te asignó la tarea \"%s\"", task.Title),
		Type:     models.NotificationTypeTaskUpdate,
		UserID:   *task.AssignedTo,
		TaskID:   idPtr(task.ID),
		Metadata: models.NotificationMetadata{Task: snapshot},
	}, SwallowErrors)
	if notif == nil || !s.Dispatcher.Enabled() {
		return notif, err
	}

	payload := taskAssignedPayload{Notification: newNotificationPayload(notif)}
	payload.Task.ID = task.ID
	payload.Task.Title = task.Title
	payload.Task.Status = task.Status
	payload.Task.DueDate = dueDate
	payload.Task.CommitteeName = committeeName

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(*task.AssignedTo),
		Event:   broadcast.EventTaskAssigned,
		Payload: payload,
	})
	return notif, nil
}

// NotifyCommitteeAssigned -> tells userID they joined a committee
func (s *NotificationService) NotifyCommitteeAssigned(ctx context.Context, committeeID, userID uint) (*models.Notification, error) {
	const op = "committee.assigned"

	if userID == 0 {
		s.skipped(op, "no user", logrus.Fields{"committee_id": committeeID})
		return nil, nil
	}

	var committee models.Committee
	found, err := s.first(ctx, &committee, committeeID, "Event")
	if err != nil {
		return nil, s.lookupFailed(op, committeeID, err, SwallowErrors)
	}
	if !found {
		s.skipped(op, "committee not found", logrus.Fields{"committee_id": committeeID})
		return nil, nil
	}

	var eventName string
	if committee.Event != nil {
		eventName = committee.Event.Name
	}

	notif, err := s.record(ctx, op, NotificationFields{
		Title:   "Asignación a comité",
		Message: fmt.Sprintf("Fuiste asignado al comité \"%s\" del evento \"%s\"", committee.Name, eventName),
		Type:    models.NotificationTypeInfo,
		UserID:  userID,
		Metadata: models.NotificationMetadata{Committee: &models.CommitteeSnapshot{
			CommitteeName: committee.Name,
			EventName:     eventName,
		}},
	}, SwallowErrors)
	if notif == nil || !s.Dispatcher.Enabled() {
		return notif, err
	}

	payload := committeeAssignedPayload{Notification: newNotificationPayload(notif)}
	payload.Committee.ID = committee.ID
	payload.Committee.Name = committee.Name
	payload.Committee.EventName = eventName

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(userID),
		Event:   broadcast.EventCommitteeAssigned,
		Payload: payload,
	})
	return notif, nil
}

// NotifyTaskUpdated pushes a live task update. Nothing is stored.
func (s *NotificationService) NotifyTaskUpdated(ctx context.Context, userID uint, task map[string]interface{}) {
	const op = "task.updated"

	if !s.Dispatcher.Enabled() {
		s.skipped(op, "broadcasting unavailable", logrus.Fields{"user_id": userID})
		return
	}

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(userID),
		Event:   broadcast.EventTaskUpdated,
		Payload: map[string]interface{}{"task": task},
	})
}

// SendGeneral pushes data under an arbitrary event name. Nothing is stored.
func (s *NotificationService) SendGeneral(ctx context.Context, userID uint, event string, data map[string]interface{}) {
	const op = "general"

	if !s.Dispatcher.Enabled() {
		s.skipped(op, "broadcasting unavailable", logrus.Fields{"user_id": userID, "event": event})
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(userID),
		Event:   event,
		Payload: data,
	})
}
