package util

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every package. The CLI sets its level and format;
// libraries only log at debug and warn.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
}

// SetLogLevel applies a level name such as "debug" or "warn".
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput redirects log output.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat writes one JSON object per entry.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
}

func WithField(key string, value any) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithDevice tags entries with the device being driven.
func WithDevice(device string) *logrus.Entry {
	return Logger.WithField("device", device)
}

// WithFeature tags entries with a feature and, when set, a property.
func WithFeature(feature, property string) *logrus.Entry {
	e := Logger.WithField("feature", feature)
	if property != "" {
		e = e.WithField("property", property)
	}
	return e
}

func Debugf(format string, args ...any) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...any) {
	Logger.Warnf(format, args...)
}
