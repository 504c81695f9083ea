package broadcast

import (
	"context"
	"time"

	"github.com/nexusesi/notifier/config"
	"github.com/sirupsen/logrus"
)

// Dispatcher hands envelopes to the selected transport. Availability is fixed
// at construction; a disabled dispatcher never touches its transport.
type Dispatcher struct {
	transport Transport
	driver    string
	enabled   bool
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewDispatcher(transport Transport, enabled bool, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		driver:    transport.Name(),
		enabled:   enabled,
		timeout:   timeout,
		logger:    logger,
	}
}

// New wires a dispatcher from configuration: availability is checked once
// and the transport is built once. A driver whose client cannot be built is
// treated as unavailable.
func New(cfg config.BroadcastConfig, logger *logrus.Logger) (*Dispatcher, error) {
	if !CheckAvailability(cfg, logger) {
		return disabled(cfg, logger), nil
	}

	transport, err := NewTransport(cfg, logger)
	if err != nil {
		logger.WithField("driver", cfg.Driver).WithError(err).
			Warn("Broadcast client setup failed, notifications will be stored without real-time delivery")
		return disabled(cfg, logger), nil
	}

	d := NewDispatcher(transport, true, cfg.Timeout, logger)
	d.driver = cfg.Driver
	return d, nil
}

func disabled(cfg config.BroadcastConfig, logger *logrus.Logger) *Dispatcher {
	d := NewDispatcher(NullTransport{}, false, cfg.Timeout, logger)
	d.driver = cfg.Driver
	return d
}

// Enabled reports whether real-time delivery is usable.
func (d *Dispatcher) Enabled() bool { return d.enabled }

// Driver names the configured driver, even when the dispatcher is disabled.
func (d *Dispatcher) Driver() string { return d.driver }

func (d *Dispatcher) Transport() Transport { return d.transport }

// Dispatch sends env and returns the transport error, if any, after logging
// it. It does not wait for any client-side acknowledgment.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) error {
	if !d.enabled {
		d.logger.WithFields(logrus.Fields{
			"channel": env.Channel,
			"event":   env.Event,
		}).Debug("Broadcasting disabled, event dropped")
		return nil
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.transport.Send(ctx, env); err != nil {
		d.logger.WithFields(logrus.Fields{
			"channel": env.Channel,
			"event":   env.Event,
			"driver":  d.transport.Name(),
		}).WithError(err).Error("Broadcast failed")
		return err
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return closeTransport(d.transport)
}
