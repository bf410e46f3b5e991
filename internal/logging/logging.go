// Package logging configures the process-wide logrus logger. Components
// receive it as a logrus.FieldLogger so tests can swap in a silent one.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to stdout. Unknown levels fall back to info,
// format "json" switches to structured output for log shippers.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
