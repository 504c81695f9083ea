package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/services"
	"github.com/nexusesi/notifier/utils"
)

type EventController struct {
	Service *services.NotificationService
}

func NewEventController(service *services.NotificationService) *EventController {
	return &EventController{Service: service}
}

// GetMetrics -> live dashboard numbers for one event
func (ec *EventController) GetMetrics(c *gin.Context) {
	eventID, ok := parseID(c, "event_id")
	if !ok {
		return
	}

	metrics, err := ec.Service.ComputeEventMetrics(c.Request.Context(), eventID)
	if errors.Is(err, services.ErrEventNotFound) {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Event metrics", metrics)
}
