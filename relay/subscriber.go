package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultPatterns cover the user and event channels.
var DefaultPatterns = []string{"user-*", "event-*"}

// Subscriber pattern-subscribes to Redis and hands every message to the hub
// under the channel it was published on.
type Subscriber struct {
	client   redis.UniversalClient
	hub      *Hub
	patterns []string
	logger   *logrus.Logger
}

func NewSubscriber(client redis.UniversalClient, hub *Hub, logger *logrus.Logger, patterns ...string) *Subscriber {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Subscriber{
		client:   client,
		hub:      hub,
		patterns: patterns,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. ready, if not nil, is closed once the
// subscription is confirmed.
func (s *Subscriber) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := s.client.PSubscribe(ctx, s.patterns...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	s.logger.WithField("patterns", s.patterns).Info("Relay subscribed to Redis")
	if ready != nil {
		close(ready)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Relay subscriber stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			n := s.hub.Publish(msg.Channel, []byte(msg.Payload))
			s.logger.WithFields(logrus.Fields{
				"channel": msg.Channel,
				"clients": n,
			}).Debug("Relayed message")
		}
	}
}
