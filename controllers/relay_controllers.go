package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nexusesi/notifier/middlewares"
	"github.com/nexusesi/notifier/relay"
	"github.com/nexusesi/notifier/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RelayController attaches WebSocket clients to the relay hub. Hub is nil
// when the redis driver is not in use.
type RelayController struct {
	Hub *relay.Hub
}

func NewRelayController(hub *relay.Hub) *RelayController {
	return &RelayController{Hub: hub}
}

// Subscribe -> GET /ws/:channel. user-{id} needs a matching token,
// event-{id} is public.
func (rc *RelayController) Subscribe(c *gin.Context) {
	if rc.Hub == nil {
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("realtime relay disabled"))
		return
	}

	channel := c.Param("channel")
	kind, id, ok := splitChannel(channel)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, errors.New("unknown channel"))
		return
	}
	if kind == "user" {
		userID := middlewares.UserID(c)
		if userID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if userID != id {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := rc.Hub.Register(channel, ws)
	go client.WritePump()
	client.ReadPump()
	rc.Hub.Unregister(client)
}

// splitChannel parses "user-5" or "event-1".
func splitChannel(channel string) (string, uint, bool) {
	kind, rawID, found := strings.Cut(channel, "-")
	if !found || (kind != "user" && kind != "event") {
		return "", 0, false
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return kind, uint(id), true
}
