package log

import (
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableQuote:    true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logrus.SetLevel(logrus.InfoLevel)
	if os.Getenv("DEBUG") != "" || strings.ToUpper(os.Getenv("LOG_LEVEL")) == "DEBUG" {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugln("DEBUG MODE IS ENABLED")
	}
	if strings.ToUpper(os.Getenv("LOG_LEVEL")) == "TRACE" {
		logrus.SetLevel(logrus.TraceLevel)
	}
	logrus.SetOutput(os.Stderr)
}

func DefaultLogger() *logrus.Logger {
	logger := logrus.StandardLogger()

	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("DEBUG") != "" || strings.ToUpper(os.Getenv("LOG_LEVEL")) == "DEBUG" {
		logger.SetLevel(logrus.DebugLevel)
	}
	if strings.ToUpper(os.Getenv("LOG_LEVEL")) == "TRACE" {
		logger.SetLevel(logrus.TraceLevel)
	}
	logger.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		DisableQuote:    true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	logger.Out = os.Stderr
	return logger
}

func Debugf(format string, args ...interface{}) {
	_, file, line, _ := runtime.Caller(1)
	logrus.Debugf(format+" call:%s:%d", append(args, file, line)...)
}

func Infof(format string, args ...interface{}) {
	if logrus.GetLevel() >= logrus.DebugLevel {
		_, file, line, _ := runtime.Caller(1)
		logrus.Infof(format+" call:%s:%d", append(args, file, line)...)
	} else {
		logrus.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if logrus.GetLevel() >= logrus.DebugLevel {
		_, file, line, _ := runtime.Caller(1)
		logrus.Warnf(format+" call:%s:%d", append(args, file, line)...)
	} else {
		logrus.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if logrus.GetLevel() >= logrus.DebugLevel {
		_, file, line, _ := runtime.Caller(1)
		logrus.Errorf(format+" call:%s:%d", append(args, file, line)...)
	} else {
		logrus.Errorf(format, args...)
	}
}

func Fatalf(format string, args ...interface{}) {
	logrus.Fatalf(format, args...)
}

func Tracef(format string, args ...interface{}) {
	_, file, line, _ := runtime.Caller(1)
	logrus.Tracef(format+" call:%s:%d", append(args, file, line)...)
}
