package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/models"
	"github.com/nexusesi/notifier/services"
	"github.com/nexusesi/notifier/utils"
)

// HookController exposes the notification builders to the main application,
// which calls them after it commits the triggering change.
type HookController struct {
	Service *services.NotificationService
}

func NewHookController(service *services.NotificationService) *HookController {
	return &HookController{Service: service}
}

type builder func(ctx context.Context, id uint) (*models.Notification, error)

// run parses :id, runs build and answers 201 with the stored notification,
// 200 when nothing was stored, or 500 when the builder returned an error.
func (hc *HookController) run(c *gin.Context, build builder) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	notif, err := build(c.Request.Context(), id)
	respondNotification(c, notif, err)
}

func respondNotification(c *gin.Context, notif *models.Notification, err error) {
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if notif == nil {
		utils.RespondJSON(c, http.StatusOK, "No notification created", nil)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

func (hc *HookController) AlertCreated(c *gin.Context) {
	hc.run(c, hc.Service.NotifyAlertCreated)
}

func (hc *HookController) IncidentCreated(c *gin.Context) {
	hc.run(c, hc.Service.NotifyIncidentCreated)
}

func (hc *HookController) IncidentManaged(c *gin.Context) {
	hc.run(c, hc.Service.NotifyIncidentManaged)
}

// IncidentResolved answers 500 when the notification could not be stored so
// the caller can roll back the resolution.
func (hc *HookController) IncidentResolved(c *gin.Context) {
	hc.run(c, hc.Service.NotifyIncidentResolved)
}

func (hc *HookController) ProgressCreated(c *gin.Context) {
	hc.run(c, hc.Service.NotifyProgressUpdated)
}

func (hc *HookController) TaskAssigned(c *gin.Context) {
	hc.run(c, hc.Service.NotifyTaskAssigned)
}

func (hc *HookController) CommitteeAssigned(c *gin.Context) {
	committeeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notif, err := hc.Service.NotifyCommitteeAssigned(c.Request.Context(), committeeID, body.UserID)
	respondNotification(c, notif, err)
}

// TaskUpdated -> live only, nothing stored
func (hc *HookController) TaskUpdated(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Task map[string]interface{} `json:"task" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hc.Service.NotifyTaskUpdated(c.Request.Context(), userID, body.Task)
	utils.RespondJSON(c, http.StatusAccepted, "Task update sent", nil)
}

// Notify -> arbitrary event to one user, nothing stored
func (hc *HookController) Notify(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Event string                 `json:"event" binding:"required"`
		Data  map[string]interface{} `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hc.Service.SendGeneral(c.Request.Context(), userID, body.Event, body.Data)
	utils.RespondJSON(c, http.StatusAccepted, "Event sent", nil)
}

func (hc *HookController) EventMetricsBroadcast(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	hc.Service.BroadcastEventMetrics(c.Request.Context(), eventID)
	utils.RespondJSON(c, http.StatusAccepted, "Event metrics broadcast", nil)
}
