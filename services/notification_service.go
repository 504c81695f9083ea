package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorPolicy decides what a builder does with a persistence failure.
type ErrorPolicy int

const (
	// SwallowErrors logs the failure and reports success to the caller.
	SwallowErrors ErrorPolicy = iota
	// PropagateErrors logs the failure and returns it.
	PropagateErrors
)

// NotifyError is returned by builders running with PropagateErrors.
type NotifyError struct {
	Op     string
	UserID uint
	Err    error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("%s for user %d: %v", e.Op, e.UserID, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// NotificationService composes notifications for domain events, stores them
// and broadcasts them on the recipient's channel.
type NotificationService struct {
	DB         *gorm.DB
	Store      NotificationStore
	Dispatcher *broadcast.Dispatcher
	Logger     *logrus.Logger
}

func NewNotificationService(db *gorm.DB, store NotificationStore, dispatcher *broadcast.Dispatcher, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		DB:         db,
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// record persists fields and applies policy to a failure. With SwallowErrors
// a failure yields (nil, nil).
func (s *NotificationService) record(ctx context.Context, op string, fields NotificationFields, policy ErrorPolicy) (*models.Notification, error) {
	notif, err := s.Store.Record(ctx, fields)
	if err == nil {
		return notif, nil
	}

	s.Logger.WithFields(logrus.Fields{
		"op":          op,
		"user_id":     fields.UserID,
		"task_id":     derefID(fields.TaskID),
		"incident_id": derefID(fields.IncidentID),
		"progress_id": derefID(fields.ProgressID),
		"alert_id":    derefID(fields.AlertID),
		"driver":      s.Dispatcher.Driver(),
	}).WithError(err).Error("Failed to record notification")

	if policy == PropagateErrors {
		return nil, &NotifyError{Op: op, UserID: fields.UserID, Err: err}
	}
	return nil, nil
}

// dispatch sends env and swallows transport failures; the dispatcher and the
// transport have already logged them.
func (s *NotificationService) dispatch(ctx context.Context, op string, env broadcast.Envelope) {
	if err := s.Dispatcher.Dispatch(ctx, env); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"op":      op,
			"channel": env.Channel,
			"event":   env.Event,
		}).Warn("Real-time delivery failed, notification kept for polling")
	}
}

// skipped logs a builder that found nobody to notify.
func (s *NotificationService) skipped(op, reason string, fields logrus.Fields) {
	s.Logger.WithFields(fields).WithField("op", op).Infof("Notification skipped: %s", reason)
}

// first loads one row with preloads; a missing row yields (false, nil).
func (s *NotificationService) first(ctx context.Context, dest interface{}, id uint, preloads ...string) (bool, error) {
	q := s.DB.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	err := q.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// lookupFailed handles a lookup error under policy.
func (s *NotificationService) lookupFailed(op string, id uint, err error, policy ErrorPolicy) error {
	s.Logger.WithFields(logrus.Fields{"op": op, "id": id}).WithError(err).Error("Failed to load notification source")
	if policy == PropagateErrors {
		return &NotifyError{Op: op, Err: err}
	}
	return nil
}

// notificationPayload is the "notification" block of every persisted event.
type notificationPayload struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

func newNotificationPayload(n *models.Notification) notificationPayload {
	return notificationPayload{
		ID:        n.ID,
		Title:     n.Title,
		Type:      n.Type,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func idPtr(id uint) *uint {
	return &id
}

func taskTitle(t *models.Task) string {
	if t == nil {
		return ""
	}
	return t.Title
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}
