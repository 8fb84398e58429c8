package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface the engine and the binaries depend on.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Tracef(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

type LoggerImpl struct {
	entry *logrus.Entry
}

func NewLogger() *LoggerImpl {
	return &LoggerImpl{entry: logrus.NewEntry(DefaultLogger())}
}

// NewNopLogger returns a Logger that discards everything. For tests.
func NewNopLogger() Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &LoggerImpl{entry: logrus.NewEntry(logger)}
}

func (l *LoggerImpl) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *LoggerImpl) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *LoggerImpl) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *LoggerImpl) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *LoggerImpl) Tracef(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

func (l *LoggerImpl) WithField(key string, value interface{}) Logger {
	return &LoggerImpl{entry: l.entry.WithField(key, value)}
}
