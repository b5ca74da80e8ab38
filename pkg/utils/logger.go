package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger configures the process logger from LOG_LEVEL and LOG_FORMAT
func InitLogger() {
	Logger = NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// NewLogger builds a logrus logger writing to stdout. Format "text" selects
// the human readable formatter, anything else JSON.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetOutput(os.Stdout)
	return logger
}

func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}
