// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets the level, format and output of the standard logger. An unknown level falls
// back to info and is reported once the logger is usable.
func Setup(level string, json bool, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, using info")
	}
}
