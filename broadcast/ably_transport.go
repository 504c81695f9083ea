package broadcast

import (
	"context"
	"fmt"

	"github.com/ably/ably-go/ably"
	"github.com/nexusesi/notifier/config"
	"github.com/sirupsen/logrus"
)

// ablyPublisher publishes one message on a named Ably channel.
type ablyPublisher interface {
	Publish(ctx context.Context, channel, name string, data interface{}) error
}

type ablyREST struct {
	client *ably.REST
}

func (a ablyREST) Publish(ctx context.Context, channel, name string, data interface{}) error {
	return a.client.Channels.Get(channel).Publish(ctx, name, data)
}

type AblyTransport struct {
	publisher ablyPublisher
	logger    *logrus.Logger
}

func NewAblyTransport(cfg config.AblyConfig, logger *logrus.Logger) (*AblyTransport, error) {
	client, err := ably.NewREST(ably.WithKey(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("create ably client: %w", err)
	}
	return &AblyTransport{publisher: ablyREST{client: client}, logger: logger}, nil
}

func (t *AblyTransport) Name() string { return "ably" }

func (t *AblyTransport) Send(ctx context.Context, env Envelope) error {
	if err := t.publisher.Publish(ctx, env.Channel, env.Event, env.Payload); err != nil {
		t.logger.WithFields(logrus.Fields{
			"channel": env.Channel,
			"event":   env.Event,
		}).WithError(err).Error("Ably publish failed")
		return err
	}
	return nil
}
