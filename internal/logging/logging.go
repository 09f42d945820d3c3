// Package logging sets up the logrus logger shared by the server
// command and every controller instance it starts.
package logging

import (
	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger that writes colorized text to stdout
// (even on Windows, via go-colorable) at the given level.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(colorable.NewColorableStdout())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
