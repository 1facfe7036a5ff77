package logging

import (
	"flag"
	"fmt"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

var levelFlag *string

// InitParam registers the -loglevel flag. Call before flag.Parse.
func InitParam() {
	levelFlag = flag.String("loglevel", "", "log level override (panic, fatal, error, warn, info, debug, trace)")
}

// New returns the root log entry. level is the configured level name; the
// -loglevel flag wins when it was registered and set.
func New(level string) (*logrus.Entry, error) {
	if levelFlag != nil && *levelFlag != "" {
		level = *levelFlag
	}
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetLevel(lvl)

	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05.000"
	f.FullTimestamp = true
	f.SpacePadding = 50
	logger.SetFormatter(f)

	return logrus.NewEntry(logger), nil
}

// Component derives a child entry rendered with the given prefix.
func Component(log *logrus.Entry, name string) *logrus.Entry {
	return log.WithField("prefix", name)
}
