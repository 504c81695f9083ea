package broadcast

import (
	"context"
	"fmt"
	"io"

	"github.com/nexusesi/notifier/config"
	"github.com/sirupsen/logrus"
)

// Transport sends one envelope through a concrete driver.
type Transport interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// NewTransport builds the transport for cfg.Driver. Unknown driver names fall
// back to the log transport.
func NewTransport(cfg config.BroadcastConfig, logger *logrus.Logger) (Transport, error) {
	switch cfg.Driver {
	case config.DriverPusher:
		return NewPusherTransport(cfg.Pusher, cfg.Timeout, logger), nil
	case config.DriverRedis:
		return NewRedisTransport(cfg.Redis, logger), nil
	case config.DriverLog:
		return NewLogTransport(logger), nil
	case config.DriverNull:
		return NullTransport{}, nil
	case config.DriverAbly:
		return NewAblyTransport(cfg.Ably, logger)
	default:
		logger.WithField("driver", cfg.Driver).Warn("Unknown broadcast driver, falling back to log")
		return NewLogTransport(logger), nil
	}
}

// closeTransport releases driver resources when the transport holds any.
func closeTransport(t Transport) error {
	if c, ok := t.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close %s transport: %w", t.Name(), err)
		}
	}
	return nil
}
