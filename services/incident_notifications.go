package services

import (
	"context"
	"fmt"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
)

type incidentCreatedPayload struct {
	Notification notificationPayload `json:"notification"`
	Incident     struct {
		ID          uint   `json:"id"`
		Description string `json:"description"`
		Status      string `json:"status"`
		TaskTitle   string `json:"task_title"`
		ReportedBy  string `json:"reported_by"`
		CreatedAt   string `json:"created_at"`
	} `json:"incident"`
}

type incidentManagedPayload struct {
	Notification notificationPayload `json:"notification"`
	Incident     struct {
		ID                uint   `json:"id"`
		Description       string `json:"description"`
		Status            string `json:"status"`
		TaskTitle         string `json:"task_title"`
		SolutionTaskTitle string `json:"solution_task_title"`
		SolutionLeader    string `json:"solution_leader"`
	} `json:"incident"`
}

type incidentResolvedPayload struct {
	Notification notificationPayload `json:"notification"`
	Incident     struct {
		ID          uint    `json:"id"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		TaskTitle   string  `json:"task_title"`
		TaskStatus  string  `json:"task_status"`
		CreatedAt   string  `json:"created_at"`
		ResolvedAt  *string `json:"resolved_at"`
	} `json:"incident"`
}

// NotifyIncidentCreated tells the event coordinator that an incident was
// reported on one of the event's tasks.
func (s *NotificationService) NotifyIncidentCreated(ctx context.Context, incidentID uint) (*models.Notification, error) {
	const op = "incident.created"

	var incident models.Incident
	found, err := s.first(ctx, &incident, incidentID, "Task.Event", "Task.Committee.Event", "Reporter")
	if err != nil {
		return nil, s.lookupFailed(op, incidentID, err, SwallowErrors)
	}
	if !found || incident.Task == nil {
		s.skipped(op, "incident or task not found", logrus.Fields{"incident_id": incidentID})
		return nil, nil
	}

	coordinatorID := incident.Task.CoordinatorID()
	if coordinatorID == nil {
		s.skipped(op, "no coordinator for task", logrus.Fields{"incident_id": incidentID, "task_id": incident.TaskID})
		return nil, nil
	}

	reporter := userName(incident.Reporter)
	notif, err := s.record(ctx, op, NotificationFields{
		Title:      "Nueva incidencia reportada",
		Message:    fmt.Sprintf("%s reportó una incidencia en la tarea \"%s\"", fallback(reporter, "Un integrante"), incident.Task.Title),
		Type:       models.NotificationTypeIncident,
		UserID:     *coordinatorID,
		TaskID:     idPtr(incident.TaskID),
		IncidentID: idPtr(incident.ID),
		Metadata: models.NotificationMetadata{Incident: &models.IncidentSnapshot{
			Status:     incident.Status,
			TaskTitle:  incident.Task.Title,
			ReportedBy: reporter,
		}},
	}, SwallowErrors)
	if notif == nil || !s.Dispatcher.Enabled() {
		return notif, err
	}

	payload := incidentCreatedPayload{Notification: newNotificationPayload(notif)}
	payload.Incident.ID = incident.ID
	payload.Incident.Description = incident.Description
	payload.Incident.Status = incident.Status
	payload.Incident.TaskTitle = incident.Task.Title
	payload.Incident.ReportedBy = reporter
	payload.Incident.CreatedAt = formatTime(incident.CreatedAt)

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(*coordinatorID),
		Event:   broadcast.EventIncidentCreated,
		Payload: payload,
	})
	return notif, nil
}

// NotifyIncidentManaged tells the reporter that a solution task was linked
// to their incident.
func (s *NotificationService) NotifyIncidentManaged(ctx context.Context, incidentID uint) (*models.Notification, error) {
	const op = "incident.managed"

	var incident models.Incident
	found, err := s.first(ctx, &incident, incidentID, "Task", "SolutionTask.Assignee")
	if err != nil {
		return nil, s.lookupFailed(op, incidentID, err, SwallowErrors)
	}
	if !found || incident.ReportedBy == nil {
		s.skipped(op, "incident or reporter not found", logrus.Fields{"incident_id": incidentID})
		return nil, nil
	}
	if incident.SolutionTaskID == nil || incident.SolutionTask == nil {
		s.skipped(op, "no solution task linked", logrus.Fields{"incident_id": incidentID})
		return nil, nil
	}

	solutionTitle := taskTitle(incident.SolutionTask)
	leader := userName(incident.SolutionTask.Assignee)

	notif, err := s.record(ctx, op, NotificationFields{
		Title:      "Incidencia en gestión",
		Message:    fmt.Sprintf("Se creó la tarea de solución \"%s\" para tu incidencia en \"%s\"", solutionTitle, taskTitle(incident.Task)),
		Type:       models.NotificationTypeIncident,
		UserID:     *incident.ReportedBy,
		TaskID:     incident.SolutionTaskID,
		IncidentID: idPtr(incident.ID),
		Metadata: models.NotificationMetadata{Incident: &models.IncidentSnapshot{
			Status:            incident.Status,
			TaskTitle:         taskTitle(incident.Task),
			SolutionTaskTitle: solutionTitle,
			SolutionLeader:    leader,
		}},
	}, SwallowErrors)
	if notif == nil || !s.Dispatcher.Enabled() {
		return notif, err
	}

	payload := incidentManagedPayload{Notification: newNotificationPayload(notif)}
	payload.Incident.ID = incident.ID
	payload.Incident.Description = incident.Description
	payload.Incident.Status = incident.Status
	payload.Incident.TaskTitle = taskTitle(incident.Task)
	payload.Incident.SolutionTaskTitle = solutionTitle
	payload.Incident.SolutionLeader = leader

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(*incident.ReportedBy),
		Event:   broadcast.EventIncidentManaged,
		Payload: payload,
	})
	return notif, nil
}

// NotifyIncidentResolved tells the reporter their incident was resolved.
// Failures are returned so the caller can keep the incident open when the
// notification could not be recorded.
func (s *NotificationService) NotifyIncidentResolved(ctx context.Context, incidentID uint) (*models.Notification, error) {
	const op = "incident.resolved"
	log := s.Logger.WithFields(logrus.Fields{"op": op, "incident_id": incidentID})

	log.Info("Resolving incident notification")

	var incident models.Incident
	found, err := s.first(ctx, &incident, incidentID, "Task")
	if err != nil {
		return nil, s.lookupFailed(op, incidentID, err, PropagateErrors)
	}
	if !found || incident.ReportedBy == nil {
		s.skipped(op, "incident or reporter not found", logrus.Fields{"incident_id": incidentID})
		return nil, nil
	}
	log = log.WithField("user_id", *incident.ReportedBy)
	log.Info("Reporter resolved, recording notification")

	notif, err := s.record(ctx, op, NotificationFields{
		Title:      "Incidencia resuelta",
		Message:    fmt.Sprintf("Tu incidencia en la tarea \"%s\" fue resuelta", taskTitle(incident.Task)),
		Type:       models.NotificationTypeIncident,
		UserID:     *incident.ReportedBy,
		TaskID:     idPtr(incident.TaskID),
		IncidentID: idPtr(incident.ID),
		Metadata: models.NotificationMetadata{Incident: &models.IncidentSnapshot{
			Status:    incident.Status,
			TaskTitle: taskTitle(incident.Task),
		}},
	}, PropagateErrors)
	if err != nil {
		return nil, err
	}
	log = log.WithField("notification_id", notif.ID)
	log.Info("Notification recorded")

	if !s.Dispatcher.Enabled() {
		log.Info("Broadcasting unavailable, skipping real-time delivery")
		return notif, nil
	}

	payload := incidentResolvedPayload{Notification: newNotificationPayload(notif)}
	payload.Incident.ID = incident.ID
	payload.Incident.Description = incident.Description
	payload.Incident.Status = incident.Status
	payload.Incident.TaskTitle = taskTitle(incident.Task)
	if incident.Task != nil {
		payload.Incident.TaskStatus = incident.Task.Status
	}
	payload.Incident.CreatedAt = formatTime(incident.CreatedAt)
	payload.Incident.ResolvedAt = formatTimePtr(incident.ResolvedAt)

	s.dispatch(ctx, op, broadcast.Envelope{
		Channel: broadcast.UserChannel(*incident.ReportedBy),
		Event:   broadcast.EventIncidentResolved,
		Payload: payload,
	})
	log.Info("Incident resolution broadcast done")

	return notif, nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
