package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogTransport writes every envelope to the application log. It never fails.
type LogTransport struct {
	logger *logrus.Logger
}

func NewLogTransport(logger *logrus.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(_ context.Context, env Envelope) error {
	t.logger.WithFields(logrus.Fields{
		"channel": env.Channel,
		"event":   env.Event,
		"payload": renderPayload(env.Payload),
	}).Info("Broadcast event")
	return nil
}

func renderPayload(payload interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%+v", payload)
	}
	return string(data)
}

// NullTransport discards events.
type NullTransport struct{}

func (NullTransport) Name() string { return "null" }

func (NullTransport) Send(context.Context, Envelope) error { return nil }
