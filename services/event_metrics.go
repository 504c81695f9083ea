package services

import (
	"context"
	"errors"
	"math"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type EventMetrics struct {
	ProgressPercentage float64 `json:"progress_percentage"`
	TotalTasks         int64   `json:"total_tasks"`
	CompletedTasks     int64   `json:"completed_tasks"`
	ActiveCommittees   int64   `json:"active_committees"`
	OpenIncidents      int64   `json:"open_incidents"`
}

// ComputeEventMetrics aggregates the event's tasks, committees and open
// incidents. A task belongs to the event directly or through its committee.
func (s *NotificationService) ComputeEventMetrics(ctx context.Context, eventID uint) (*EventMetrics, error) {
	db := s.DB.WithContext(ctx)

	var event models.Event
	if err := db.Select("id").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	committees := func() *gorm.DB {
		return db.Model(&models.Committee{}).Where("event_id = ?", eventID)
	}
	eventTasks := func() *gorm.DB {
		return db.Model(&models.Task{}).
			Where("event_id = ? OR committee_id IN (?)", eventID, committees().Select("id"))
	}

	var m EventMetrics
	if err := eventTasks().Count(&m.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := eventTasks().Where("status = ?", models.TaskStatusCompleted).Count(&m.CompletedTasks).Error; err != nil {
		return nil, err
	}
	if err := committees().Count(&m.ActiveCommittees).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Incident{}).
		Where("status <> ? AND task_id IN (?)", models.IncidentStatusResolved, eventTasks().Select("id")).
		Count(&m.OpenIncidents).Error; err != nil {
		return nil, err
	}

	if m.TotalTasks > 0 {
		m.ProgressPercentage = math.Round(float64(m.CompletedTasks)/float64(m.TotalTasks)*10000) / 100
	}
	return &m, nil
}

// BroadcastEventMetrics publishes fresh metrics on the event's public
// channel. Failures are logged, never returned.
func (s *NotificationService) BroadcastEventMetrics(ctx context.Context, eventID uint) {
	log := s.Logger.WithFields(logrus.Fields{"op": "event.metrics", "event_id": eventID})

	if !s.Dispatcher.Enabled() {
		log.Debug("Broadcasting unavailable, metrics not published")
		return
	}

	metrics, err := s.ComputeEventMetrics(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		log.Info("Event not found, metrics not published")
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to compute event metrics")
		return
	}

	if err := s.Dispatcher.Dispatch(ctx, broadcast.Envelope{
		Channel: broadcast.EventChannel(eventID),
		Event:   broadcast.EventEventMetricsUpdated,
		Payload: metrics,
	}); err != nil {
		return
	}

	log.WithFields(logrus.Fields{
		"progress_percentage": metrics.ProgressPercentage,
		"total_tasks":         metrics.TotalTasks,
		"completed_tasks":     metrics.CompletedTasks,
		"active_committees":   metrics.ActiveCommittees,
		"open_incidents":      metrics.OpenIncidents,
	}).Info("Event metrics broadcast")
}
