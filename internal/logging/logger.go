package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the service logger. JSON output is used in production or when
// format is "json"; development gets the text formatter.
func New(level, format string, isDevelopment bool) *logrus.Logger {
	return newWithOutput(level, format, isDevelopment, os.Stdout)
}

func newWithOutput(level, format string, isDevelopment bool, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if level == "" {
		if isDevelopment {
			level = "debug"
		} else {
			level = "info"
		}
	}

	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(jsonFormatter())
	case "text":
		log.SetFormatter(textFormatter())
	default:
		if isDevelopment {
			log.SetFormatter(textFormatter())
		} else {
			log.SetFormatter(jsonFormatter())
		}
	}

	return log
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// WithService scopes a logger to one service
func WithService(logger *logrus.Logger, serviceName string) *logrus.Entry {
	return logger.WithField("service", serviceName)
}
