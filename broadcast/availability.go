package broadcast

import (
	"strings"

	"github.com/nexusesi/notifier/config"
	"github.com/sirupsen/logrus"
)

// CheckAvailability reports whether the configured driver has everything it
// needs to deliver. It is meant to be called once at startup.
func CheckAvailability(cfg config.BroadcastConfig, logger *logrus.Logger) bool {
	available := driverAvailable(cfg)

	entry := logger.WithField("driver", cfg.Driver)
	if available {
		entry.Info("Broadcasting available")
	} else {
		entry.Warn("Broadcasting unavailable, notifications will be stored without real-time delivery")
	}
	return available
}

func driverAvailable(cfg config.BroadcastConfig) bool {
	switch cfg.Driver {
	case config.DriverPusher:
		p := cfg.Pusher
		return nonEmpty(p.Key, p.Secret, p.AppID, p.Cluster)
	case config.DriverRedis:
		return nonEmpty(cfg.Redis.Host)
	case config.DriverLog, config.DriverNull:
		return true
	case config.DriverAbly:
		return nonEmpty(cfg.Ably.Key)
	default:
		return false
	}
}

func nonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
