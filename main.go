package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/broadcast"
	"github.com/nexusesi/notifier/config"
	"github.com/nexusesi/notifier/database"
	"github.com/nexusesi/notifier/relay"
	"github.com/nexusesi/notifier/router"
	"github.com/nexusesi/notifier/services"
	"github.com/nexusesi/notifier/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("driver", a.Dispatcher.Driver()).Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// app is the wired service. RelayReady is closed once the Redis relay is
// subscribed; it stays nil when the relay is not running.
type app struct {
	Handler    http.Handler
	Dispatcher *broadcast.Dispatcher
	Hub        *relay.Hub
	RelayReady chan struct{}
}

// buildApp opens the database, selects the broadcast driver and, for the
// redis driver, starts the WebSocket relay bound to ctx.
func buildApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("AutoMigrate completed.")

	dispatcher, err := broadcast.New(cfg.Broadcast, logger)
	if err != nil {
		return nil, fmt.Errorf("set up broadcasting: %w", err)
	}

	store := services.NewGormNotificationStore(db)
	service := services.NewNotificationService(db, store, dispatcher, logger)

	a := &app{Dispatcher: dispatcher}

	if rt, ok := dispatcher.Transport().(*broadcast.RedisTransport); ok && dispatcher.Enabled() {
		a.Hub = relay.NewHub(logger)
		a.RelayReady = make(chan struct{})

		go func() {
			if err := relay.NewSubscriber(rt.Client(), a.Hub, logger).Run(ctx, a.RelayReady); err != nil {
				logger.WithError(err).Error("Relay subscriber exited")
			}
		}()
	}

	a.Handler = router.SetupRouter(router.Deps{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: service,
		Hub:     a.Hub,
	})
	return a, nil
}

func (a *app) Close() {
	if a.Hub != nil {
		a.Hub.Close()
	}
	a.Dispatcher.Close()
}
