package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/config"
	"github.com/nexusesi/notifier/database"
	"github.com/nexusesi/notifier/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingTransport keeps every envelope it is asked to send.
type recordingTransport struct {
	mu   sync.Mutex
	sent []broadcast.Envelope
	err  error
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, env broadcast.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return r.err
}

func (r *recordingTransport) envelopes() []broadcast.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast.Envelope(nil), r.sent...)
}

// failingStore fails every write.
type failingStore struct {
	*GormNotificationStore
}

var errStoreDown = errors.New("database is locked")

func (failingStore) Record(context.Context, NotificationFields) (*models.Notification, error) {
	return nil, errStoreDown
}

type fixture struct {
	db        *gorm.DB
	svc       *NotificationService
	transport *recordingTransport
	hook      *test.Hook
}

func newFixture(t *testing.T, enabled bool) *fixture {
	t.Helper()

	db := database.OpenTestDB(t)
	seed(t, db)

	logger, hook := test.NewNullLogger()
	transport := &recordingTransport{}
	dispatcher := broadcast.NewDispatcher(transport, enabled, time.Second, logger)

	return &fixture{
		db:        db,
		svc:       NewNotificationService(db, NewGormNotificationStore(db), dispatcher, logger),
		transport: transport,
		hook:      hook,
	}
}

func (f *fixture) withStore(store NotificationStore) *fixture {
	f.svc.Store = store
	return f
}

func (f *fixture) notifications(t *testing.T) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.db.Order("id").Find(&rows).Error)
	return rows
}

func uintPtr(v uint) *uint { return &v }

// seed builds one event (id 1) coordinated by user 3, a committee (id 2),
// tasks 9 and 11 linked to the event directly and task 10 through the
// committee, plus one incident, progress report and alert.
func seed(t *testing.T, db *gorm.DB) {
	t.Helper()

	due := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	resolved := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	rows := []interface{}{
		&models.User{ID: 3, Name: "Laura Gómez", Email: "laura@uni.edu", Role: "coordinator"},
		&models.User{ID: 5, Name: "Carlos Ruiz", Email: "carlos@uni.edu", Role: "member"},
		&models.User{ID: 7, Name: "Marta Díaz", Email: "marta@uni.edu", Role: "member"},
		&models.Event{ID: 1, Name: "Encuentro de Semilleros", CoordinatorID: uintPtr(3)},
		&models.Event{ID: 2, Name: "Evento sin coordinador"},
		&models.Committee{ID: 2, Name: "Logística", EventID: 1},
		&models.Task{ID: 9, Title: "Reservar auditorio", Status: models.TaskStatusPending, EventID: uintPtr(1), AssignedTo: uintPtr(5), DueDate: &due},
		&models.Task{ID: 10, Title: "Diseñar afiches", Status: models.TaskStatusCompleted, CommitteeID: uintPtr(2), AssignedTo: uintPtr(5)},
		&models.Task{ID: 11, Title: "Buscar auditorio alterno", Status: models.TaskStatusInProgress, EventID: uintPtr(1), AssignedTo: uintPtr(7)},
		&models.Task{ID: 12, Title: "Tarea huérfana", Status: models.TaskStatusPending, EventID: uintPtr(2)},
		&models.Incident{ID: 4, Description: "Auditorio no disponible", Status: models.IncidentStatusReported, TaskID: 9, ReportedBy: uintPtr(5), SolutionTaskID: uintPtr(11)},
		&models.Incident{ID: 13, Description: "Proyector dañado", Status: models.IncidentStatusResolved, TaskID: 10, ReportedBy: uintPtr(5), ResolvedAt: &resolved},
		&models.Incident{ID: 14, Description: "Sin responsable", Status: models.IncidentStatusReported, TaskID: 12},
		&models.Progress{ID: 6, Description: "Afiches impresos", TaskID: 10, UserID: uintPtr(5)},
		&models.Alert{ID: 8, Message: "La tarea vence mañana", Type: "critical", TaskID: uintPtr(9), UserID: 5},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func TestNotifyAlertCreated_LogDriver(t *testing.T) {
	f := newFixture(t, true)
	logger, hook := test.NewNullLogger()
	f.svc.Dispatcher = broadcast.NewDispatcher(broadcast.NewLogTransport(logger), true, time.Second, logger)

	notif, err := f.svc.NotifyAlertCreated(context.Background(), 8)
	require.NoError(t, err)
	require.NotNil(t, notif)

	rows := f.notifications(t)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(5), rows[0].UserID)
	assert.Equal(t, models.NotificationTypeAlert, rows[0].Type)
	assert.Equal(t, uint(9), *rows[0].TaskID)
	assert.Equal(t, uint(8), *rows[0].AlertID)
	assert.False(t, rows[0].IsRead)
	assert.Equal(t, "Alerta crítica", rows[0].Title)
	assert.Equal(t, "Reservar auditorio", rows[0].Metadata.Data().Alert.TaskTitle)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Data["channel"] == "user-5" && e.Data["event"] == broadcast.EventAlertCreated {
			logged = true
		}
	}
	assert.True(t, logged, "expected a log line for user-5 alert.created")
}

func TestNotifyAlertCreated_UnavailableStoresNothing(t *testing.T) {
	f := newFixture(t, false)

	notif, err := f.svc.NotifyAlertCreated(context.Background(), 8)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, f.notifications(t))
	assert.Empty(t, f.transport.envelopes())
}

func TestPersistingBuilders_StoreRegardlessOfAvailability(t *testing.T) {
	builders := map[string]func(*NotificationService) (*models.Notification, error){
		"incident created":   func(s *NotificationService) (*models.Notification, error) { return s.NotifyIncidentCreated(context.Background(), 4) },
		"incident managed":   func(s *NotificationService) (*models.Notification, error) { return s.NotifyIncidentManaged(context.Background(), 4) },
		"incident resolved":  func(s *NotificationService) (*models.Notification, error) { return s.NotifyIncidentResolved(context.Background(), 13) },
		"progress updated":   func(s *NotificationService) (*models.Notification, error) { return s.NotifyProgressUpdated(context.Background(), 6) },
		"task assigned":      func(s *NotificationService) (*models.Notification, error) { return s.NotifyTaskAssigned(context.Background(), 9) },
		"committee assigned": func(s *NotificationService) (*models.Notification, error) { return s.NotifyCommitteeAssigned(context.Background(), 2, 7) },
	}

	for name, build := range builders {
		for _, enabled := range []bool{true, false} {
			f := newFixture(t, enabled)

			notif, err := build(f.svc)
			require.NoError(t, err, name)
			require.NotNil(t, notif, name)
			assert.Len(t, f.notifications(t), 1, name)

			if enabled {
				assert.Len(t, f.transport.envelopes(), 1, name)
			} else {
				assert.Empty(t, f.transport.envelopes(), "%s must not reach the transport", name)
			}
		}
	}
}

func TestNotifyIncidentCreated_NullDriver(t *testing.T) {
	f := newFixture(t, true)
	f.svc.Dispatcher = broadcast.NewDispatcher(broadcast.NullTransport{}, true, time.Second, f.svc.Logger)

	notif, err := f.svc.NotifyIncidentCreated(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, notif)

	assert.Equal(t, uint(3), notif.UserID)
	assert.Equal(t, models.NotificationTypeIncident, notif.Type)
	assert.Equal(t, uint(4), *notif.IncidentID)
	assert.Empty(t, f.transport.envelopes())
}

func TestNotifyIncidentCreated_Payload(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyIncidentCreated(context.Background(), 4)
	require.NoError(t, err)

	sent := f.transport.envelopes()
	require.Len(t, sent, 1)
	assert.Equal(t, "user-3", sent[0].Channel)
	assert.Equal(t, broadcast.EventIncidentCreated, sent[0].Event)

	payload, ok := sent[0].Payload.(incidentCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, notif.ID, payload.Notification.ID)
	assert.Equal(t, "Auditorio no disponible", payload.Incident.Description)
	assert.Equal(t, "Reservar auditorio", payload.Incident.TaskTitle)
	assert.Equal(t, "Carlos Ruiz", payload.Incident.ReportedBy)
}

func TestNotifyIncidentCreated_NoCoordinatorIsNoop(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyIncidentCreated(context.Background(), 14)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, f.notifications(t))
	assert.Empty(t, f.transport.envelopes())
}

func TestNotifyIncidentManaged_Payload(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyIncidentManaged(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, uint(5), notif.UserID)

	sent := f.transport.envelopes()
	require.Len(t, sent, 1)
	assert.Equal(t, "user-5", sent[0].Channel)

	payload := sent[0].Payload.(incidentManagedPayload)
	assert.Equal(t, "Buscar auditorio alterno", payload.Incident.SolutionTaskTitle)
	assert.Equal(t, "Marta Díaz", payload.Incident.SolutionLeader)

	meta := notif.Metadata.Data()
	assert.Equal(t, "incident", meta.Kind())
	assert.Equal(t, "Marta Díaz", meta.Incident.SolutionLeader)
}

func TestNotifyIncidentManaged_NoReporterIsNoop(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyIncidentManaged(context.Background(), 14)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, f.notifications(t))
}

func TestNotifyIncidentManaged_NoSolutionTaskIsNoop(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyIncidentManaged(context.Background(), 13)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, f.notifications(t))
	assert.Empty(t, f.transport.envelopes())

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, uint(13), entry.Data["incident_id"])
}

func TestNotifyIncidentResolved_PersistenceFailurePropagates(t *testing.T) {
	f := newFixture(t, true)
	f.withStore(failingStore{NewGormNotificationStore(f.db)})

	notif, err := f.svc.NotifyIncidentResolved(context.Background(), 13)
	assert.Nil(t, notif)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	var notifyErr *NotifyError
	require.ErrorAs(t, err, &notifyErr)
	assert.Equal(t, "incident.resolved", notifyErr.Op)
	assert.Equal(t, uint(5), notifyErr.UserID)

	assert.Empty(t, f.transport.envelopes())
}

func TestNotifyIncidentResolved_Payload(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.NotifyIncidentResolved(context.Background(), 13)
	require.NoError(t, err)

	sent := f.transport.envelopes()
	require.Len(t, sent, 1)
	payload := sent[0].Payload.(incidentResolvedPayload)
	assert.Equal(t, models.IncidentStatusResolved, payload.Incident.Status)
	assert.Equal(t, models.TaskStatusCompleted, payload.Incident.TaskStatus)
	require.NotNil(t, payload.Incident.ResolvedAt)
	assert.Equal(t, "2026-10-01T12:00:00Z", *payload.Incident.ResolvedAt)
}

func TestOtherBuilders_SwallowPersistenceFailure(t *testing.T) {
	f := newFixture(t, true)
	f.withStore(failingStore{NewGormNotificationStore(f.db)})

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 9)
	assert.NoError(t, err)
	assert.Nil(t, notif)

	notif, err = f.svc.NotifyIncidentCreated(context.Background(), 4)
	assert.NoError(t, err)
	assert.Nil(t, notif)

	assert.Empty(t, f.transport.envelopes())

	entry := f.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, uint(3), entry.Data["user_id"])
	assert.Equal(t, uint(4), entry.Data["incident_id"])
	assert.Equal(t, "recording", entry.Data["driver"])
}

func TestPersistenceFailure_LogsConfiguredDriver(t *testing.T) {
	f := newFixture(t, true)
	logger, hook := test.NewNullLogger()
	dispatcher, err := broadcast.New(config.BroadcastConfig{Driver: config.DriverPusher}, logger)
	require.NoError(t, err)
	require.False(t, dispatcher.Enabled())

	f.svc.Dispatcher = dispatcher
	f.svc.Logger = logger
	f.withStore(failingStore{NewGormNotificationStore(f.db)})

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 9)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Equal(t, "pusher", hook.LastEntry().Data["driver"])
}

func TestBuilders_SwallowTransportFailure(t *testing.T) {
	f := newFixture(t, true)
	f.transport.err = errors.New("pusher unreachable")

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 9)
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.Len(t, f.notifications(t), 1)

	notif, err = f.svc.NotifyIncidentResolved(context.Background(), 13)
	require.NoError(t, err)
	require.NotNil(t, notif)
}

func TestNotifyProgressUpdated_CoordinatorThroughCommittee(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyProgressUpdated(context.Background(), 6)
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.Equal(t, uint(3), notif.UserID)
	assert.Equal(t, models.NotificationTypeProgress, notif.Type)
	assert.Equal(t, uint(6), *notif.ProgressID)

	sent := f.transport.envelopes()
	require.Len(t, sent, 1)
	payload := sent[0].Payload.(progressUpdatedPayload)
	assert.Equal(t, "Diseñar afiches", payload.Progress.TaskTitle)
	assert.Equal(t, "Carlos Ruiz", payload.Progress.ReportedBy)
}

func TestNotifyTaskAssigned_Payload(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeTaskUpdate, notif.Type)

	payload := f.transport.envelopes()[0].Payload.(taskAssignedPayload)
	assert.Equal(t, "Logística", payload.Task.CommitteeName)
	assert.Nil(t, payload.Task.DueDate)

	_, err = f.svc.NotifyTaskAssigned(context.Background(), 9)
	require.NoError(t, err)
	payload = f.transport.envelopes()[1].Payload.(taskAssignedPayload)
	require.NotNil(t, payload.Task.DueDate)
	assert.Equal(t, "2026-11-20T00:00:00Z", *payload.Task.DueDate)
}

func TestNotifyTaskAssigned_NoAssigneeIsNoop(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 12)
	assert.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, f.notifications(t))
}

func TestNotifyCommitteeAssigned(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyCommitteeAssigned(context.Background(), 2, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), notif.UserID)
	assert.Equal(t, models.NotificationTypeInfo, notif.Type)

	sent := f.transport.envelopes()
	require.Len(t, sent, 1)
	assert.Equal(t, broadcast.EventCommitteeAssigned, sent[0].Event)
	payload := sent[0].Payload.(committeeAssignedPayload)
	assert.Equal(t, "Encuentro de Semilleros", payload.Committee.EventName)

	notif, err = f.svc.NotifyCommitteeAssigned(context.Background(), 99, 7)
	assert.NoError(t, err)
	assert.Nil(t, notif)
}

func TestNonPersistingBuilders(t *testing.T) {
	f := newFixture(t, true)

	f.svc.NotifyTaskUpdated(context.Background(), 5, map[string]interface{}{"id": 9, "status": "completed"})
	f.svc.SendGeneral(context.Background(), 5, "seedbed.reminder", map[string]interface{}{"text": "hola"})

	assert.Empty(t, f.notifications(t))
	sent := f.transport.envelopes()
	require.Len(t, sent, 2)
	assert.Equal(t, broadcast.EventTaskUpdated, sent[0].Event)
	assert.Equal(t, map[string]interface{}{"task": map[string]interface{}{"id": 9, "status": "completed"}}, sent[0].Payload)
	assert.Equal(t, "seedbed.reminder", sent[1].Event)
	assert.Equal(t, map[string]interface{}{"text": "hola"}, sent[1].Payload)

	off := newFixture(t, false)
	off.svc.NotifyTaskUpdated(context.Background(), 5, map[string]interface{}{"id": 9})
	off.svc.SendGeneral(context.Background(), 5, "x", nil)
	assert.Empty(t, off.transport.envelopes())
	assert.Empty(t, off.notifications(t))
}

func TestBuilders_DoNotDeduplicate(t *testing.T) {
	f := newFixture(t, true)

	first, err := f.svc.NotifyIncidentCreated(context.Background(), 4)
	require.NoError(t, err)
	second, err := f.svc.NotifyIncidentCreated(context.Background(), 4)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.notifications(t), 2)
	assert.Len(t, f.transport.envelopes(), 2)
}

func TestMetadataIsASnapshot(t *testing.T) {
	f := newFixture(t, true)

	notif, err := f.svc.NotifyTaskAssigned(context.Background(), 9)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Task{}).Where("id = ?", 9).Update("title", "Título nuevo").Error)

	var stored models.Notification
	require.NoError(t, f.db.First(&stored, notif.ID).Error)
	assert.Equal(t, "Reservar auditorio", stored.Metadata.Data().Task.TaskTitle)
}
