package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide application logger. InitLogger must run before
// the HTTP server starts; tests may replace it with a null logger.
var Logger = logrus.New()

func InitLogger(level, format string) *logrus.Logger {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Logger.Warnf("Unknown LOG_LEVEL %q, falling back to info", level)
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	return Logger
}
