package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/middlewares"
	"github.com/nexusesi/notifier/services"
	"github.com/nexusesi/notifier/utils"
)

// NotificationController serves the authenticated user's inbox.
type NotificationController struct {
	Store services.NotificationStore
}

func NewNotificationController(store services.NotificationStore) *NotificationController {
	return &NotificationController{Store: store}
}

// ListNotifications -> newest first, ?page=&limit=
func (nc *NotificationController) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := nc.Store.ListForUser(c.Request.Context(), middlewares.UserID(c), page, limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications", result)
}

func (nc *NotificationController) UnreadCount(c *gin.Context) {
	unread, err := nc.Store.UnreadCount(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unread notifications", gin.H{"unread": unread})
}

// MarkAsRead -> only the owner may mark a notification
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c, "notif_id")
	if !ok {
		return
	}

	found, err := nc.Store.MarkRead(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if !found {
		utils.RespondError(c, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", gin.H{"notif_id": id})
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	updated, err := nc.Store.MarkAllRead(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

// parseID reads a positive numeric path param, answering 400 otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}
