package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexusesi/notifier/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisMessage is the JSON body published on the channel.
type redisMessage struct {
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
	Channel string      `json:"channel"`
}

type RedisTransport struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisTransport(cfg config.RedisConfig, logger *logrus.Logger) *RedisTransport {
	return NewRedisTransportWithClient(NewRedisClient(cfg), logger)
}

func NewRedisTransportWithClient(client *redis.Client, logger *logrus.Logger) *RedisTransport {
	return &RedisTransport{client: client, logger: logger}
}

// NewRedisClient builds a client for the default Redis connection.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (t *RedisTransport) Name() string { return "redis" }

func (t *RedisTransport) Client() *redis.Client { return t.client }

func (t *RedisTransport) Send(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(redisMessage{
		Event:   env.Event,
		Data:    env.Payload,
		Channel: env.Channel,
	})
	if err != nil {
		t.logger.WithField("event", env.Event).WithError(err).Error("Redis broadcast encode failed")
		return fmt.Errorf("encode redis message: %w", err)
	}

	if err := t.client.Publish(ctx, env.Channel, body).Err(); err != nil {
		t.logger.WithFields(logrus.Fields{
			"channel": env.Channel,
			"event":   env.Event,
		}).WithError(err).Error("Redis publish failed")
		return err
	}
	return nil
}

func (t *RedisTransport) Close() error {
	return t.client.Close()
}
