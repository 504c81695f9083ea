package broadcast

import (
	"context"
	"net/http"
	"time"

	"github.com/nexusesi/notifier/config"
	"github.com/pusher/pusher-http-go/v5"
	"github.com/sirupsen/logrus"
)

// pusherTrigger is the subset of *pusher.Client used here.
type pusherTrigger interface {
	Trigger(channel string, eventName string, data interface{}) error
}

type PusherTransport struct {
	client pusherTrigger
	logger *logrus.Logger
}

// NewPusherTransport builds a TLS client whose HTTP calls are bounded by
// timeout. A zero timeout keeps the client's default.
func NewPusherTransport(cfg config.PusherConfig, timeout time.Duration, logger *logrus.Logger) *PusherTransport {
	client := &pusher.Client{
		AppID:   cfg.AppID,
		Key:     cfg.Key,
		Secret:  cfg.Secret,
		Cluster: cfg.Cluster,
		Secure:  true,
	}
	if timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &PusherTransport{client: client, logger: logger}
}

func (t *PusherTransport) Name() string { return "pusher" }

// Send triggers the event synchronously. The pusher client has no context
// support, so ctx is only checked before the call.
func (t *PusherTransport) Send(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.client.Trigger(env.Channel, env.Event, env.Payload); err != nil {
		t.logger.WithFields(logrus.Fields{
			"channel": env.Channel,
			"event":   env.Event,
		}).WithError(err).Error("Pusher trigger failed")
		return err
	}
	return nil
}
