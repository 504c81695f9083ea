package services

import (
	"context"
	"testing"
	"time"

	"github.com/nexusesi/notifier/database"
	"github.com/nexusesi/notifier/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordN(t *testing.T, store *GormNotificationStore, userID uint, n int) []*models.Notification {
	t.Helper()
	out := make([]*models.Notification, 0, n)
	for i := 0; i < n; i++ {
		notif, err := store.Record(context.Background(), NotificationFields{
			Title:   "Aviso",
			Message: "Mensaje",
			Type:    models.NotificationTypeInfo,
			UserID:  userID,
		})
		require.NoError(t, err)
		out = append(out, notif)
	}
	return out
}

func TestRecord(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))

	notif, err := store.Record(context.Background(), NotificationFields{
		Title:      "Nueva incidencia reportada",
		Message:    "Carlos reportó una incidencia",
		Type:       models.NotificationTypeIncident,
		UserID:     3,
		TaskID:     idPtr(9),
		IncidentID: idPtr(4),
		Metadata:   models.NotificationMetadata{Incident: &models.IncidentSnapshot{Status: "reported", TaskTitle: "Reservar auditorio"}},
	})
	require.NoError(t, err)
	assert.NotZero(t, notif.ID)
	assert.False(t, notif.IsRead)
	assert.WithinDuration(t, time.Now(), notif.CreatedAt, time.Minute)

	var stored models.Notification
	require.NoError(t, store.DB.First(&stored, notif.ID).Error)
	assert.Equal(t, uint(4), *stored.IncidentID)
	assert.Nil(t, stored.ProgressID)
	assert.Equal(t, "Reservar auditorio", stored.Metadata.Data().Incident.TaskTitle)
}

func TestRecord_RequiresRecipient(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))

	_, err := store.Record(context.Background(), NotificationFields{Title: "x", Message: "y", Type: models.NotificationTypeInfo})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestListForUser(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))
	mine := recordN(t, store, 5, 3)
	recordN(t, store, 6, 2)

	page, err := store.ListForUser(context.Background(), 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(3), page.Unread)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, mine[2].ID, page.Notifications[0].ID)
	assert.Equal(t, mine[1].ID, page.Notifications[1].ID)

	page, err = store.ListForUser(context.Background(), 5, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, mine[0].ID, page.Notifications[0].ID)
}

func TestListForUser_ClampsPaging(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))

	page, err := store.ListForUser(context.Background(), 5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.Limit)

	page, err = store.ListForUser(context.Background(), 5, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Empty(t, page.Notifications)
}

func TestMarkRead_OnlyOwner(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))
	notif := recordN(t, store, 5, 1)[0]

	ok, err := store.MarkRead(context.Background(), 6, notif.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.MarkRead(context.Background(), 5, notif.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkRead(context.Background(), 5, notif.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := store.UnreadCount(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, unread)

	ok, err = store.MarkRead(context.Background(), 5, 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkAllRead(t *testing.T) {
	store := NewGormNotificationStore(database.OpenTestDB(t))
	recordN(t, store, 5, 3)
	recordN(t, store, 6, 1)

	n, err := store.MarkAllRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	unread, err := store.UnreadCount(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = store.UnreadCount(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
