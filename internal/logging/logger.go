// Package logging configures the process-wide logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Configure sets the level ("debug", "info", ...) and the output format
// ("text" or "json"). Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects log output. Tests use it to silence the logger.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// For returns an entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
