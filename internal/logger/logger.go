// Package logger provides the server's structured logging wrapper around logrus.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts the global log level (debug, info, warn, error).
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		base.Warnf("unknown log level %q, keeping %s", level, base.GetLevel())
		return
	}
	base.SetLevel(lvl)
}

// Component returns a logger scoped to a single subsystem, tagged with a
// "component" field instead of the bracketed string prefixes the prototype
// server used ("[REPLICATION] ...", "[AOF] ...").
func Component(name string) *logrus.Entry {
	return base.WithField("component", name)
}
