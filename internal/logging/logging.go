// Package logging constructs the process logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	Verbose bool // debug level instead of info
	JSON    bool // JSON formatter instead of text
}

// New builds a configured logrus logger writing to stderr.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}

	return log
}
