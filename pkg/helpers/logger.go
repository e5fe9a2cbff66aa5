package helpers

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus logger for app: colored text at debug level in
// development, JSON at info level everywhere else. A non-empty level overrides
// the default; an unknown level is reported and ignored.
func NewLogger(app, env string, level ...string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.AddHook(fieldHook{"app": app})

	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if len(level) > 0 && level[0] != "" {
		lvl, err := logrus.ParseLevel(level[0])
		if err != nil {
			logger.WithError(err).Warn("ignoring LOG_LEVEL")
		} else {
			logger.SetLevel(lvl)
		}
	}
	return logger
}

// NopLogger discards everything. Constructors fall back to it when given nil.
func NopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LogError logs msg at error level with err and any extra fields attached.
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

// fieldHook stamps constant fields on every entry without overwriting
// a value the caller already set.
type fieldHook logrus.Fields

func (fieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h fieldHook) Fire(e *logrus.Entry) error {
	for k, v := range h {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}
