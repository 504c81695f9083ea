// Package broadcast delivers real-time events to user and event channels
// through the driver selected in configuration.
package broadcast

import "fmt"

// Event names
const (
	EventAlertCreated        = "alert.created"
	EventIncidentCreated     = "incident.created"
	EventIncidentManaged     = "incident.managed"
	EventIncidentResolved    = "incident.resolved"
	EventProgressUpdated     = "progress.updated"
	EventTaskUpdated         = "task.updated"
	EventTaskAssigned        = "task.assigned"
	EventCommitteeAssigned   = "committee.assigned"
	EventEventMetricsUpdated = "EventMetricsUpdated"
)

// Envelope is one delivery: an event name and payload addressed to a channel.
type Envelope struct {
	Channel string
	Event   string
	Payload interface{}
}

// UserChannel -> private channel of one user
func UserChannel(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

// EventChannel -> public channel of one seedbed event
func EventChannel(eventID uint) string {
	return fmt.Sprintf("event-%d", eventID)
}
