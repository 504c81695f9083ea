package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/config"
	"github.com/nexusesi/notifier/controllers"
	"github.com/nexusesi/notifier/middlewares"
	"github.com/nexusesi/notifier/relay"
	"github.com/nexusesi/notifier/services"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP layer needs. Hub may be nil.
type Deps struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Store   services.NotificationStore
	Service *services.NotificationService
	Hub     *relay.Hub
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware(d.Logger))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigin))

	secret := []byte(d.Config.JWTSecret)
	limiter := middlewares.NewRateLimiter(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst)

	notificationCtrl := controllers.NewNotificationController(d.Store)
	hookCtrl := controllers.NewHookController(d.Service)
	eventCtrl := controllers.NewEventController(d.Service)
	relayCtrl := controllers.NewRelayController(d.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/ws/:channel", middlewares.WebSocketAuthMiddleware(secret), relayCtrl.Subscribe)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(secret), limiter.RateLimit())
	{
		api.GET("/notifications", notificationCtrl.ListNotifications)
		api.GET("/notifications/unread-count", notificationCtrl.UnreadCount)
		api.PATCH("/notifications/read-all", notificationCtrl.MarkAllAsRead)
		api.PATCH("/notifications/:notif_id/read", notificationCtrl.MarkAsRead)

		api.GET("/events/:event_id/metrics", eventCtrl.GetMetrics)
	}

	// ----------------------------------------------------------------
	//                      INTERNAL HOOKS
	// ----------------------------------------------------------------
	internal := r.Group("/internal")
	internal.Use(middlewares.InternalKeyMiddleware(d.Config.InternalKey))
	{
		internal.POST("/alerts/:id/created", hookCtrl.AlertCreated)

		internal.POST("/incidents/:id/created", hookCtrl.IncidentCreated)
		internal.POST("/incidents/:id/managed", hookCtrl.IncidentManaged)
		internal.POST("/incidents/:id/resolved", hookCtrl.IncidentResolved)

		internal.POST("/progress/:id/created", hookCtrl.ProgressCreated)

		internal.POST("/tasks/:id/assigned", hookCtrl.TaskAssigned)
		internal.POST("/committees/:id/assigned", hookCtrl.CommitteeAssigned)

		internal.POST("/users/:id/task-updated", hookCtrl.TaskUpdated)
		internal.POST("/users/:id/notify", hookCtrl.Notify)

		internal.POST("/events/:id/metrics/broadcast", hookCtrl.EventMetricsBroadcast)
	}

	return r
}
