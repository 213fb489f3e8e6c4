package utils

import (
	"log"
	"os"
)

// LogLevel gates the package-level leveled logger.
type LogLevel uint8

const (
	LogLevelNothing LogLevel = 0
	LogLevelError   LogLevel = 1
	LogLevelInfo    LogLevel = 2
	LogLevelDebug   LogLevel = 3
)

const logEnv = "QUICENDPOINT_LOG_LEVEL"

var logLevel = readLogLevelFromEnv()

func readLogLevelFromEnv() LogLevel {
	switch os.Getenv(logEnv) {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelNothing
	}
}

// SetLogLevel overrides the level read from the environment.
func SetLogLevel(level LogLevel) { logLevel = level }

// A Logger logs connection-core diagnostics with a per-connection tag.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithTag(tag string) Logger
}

type defaultLogger struct {
	tag string
}

// DefaultLogger is the stdlib-backed Logger every Connection falls back
// to when no Config.Logger is supplied.
var DefaultLogger Logger = &defaultLogger{}

func (l *defaultLogger) WithTag(tag string) Logger { return &defaultLogger{tag: tag} }

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if logLevel >= LogLevelDebug {
		l.logf(format, args...)
	}
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if logLevel >= LogLevelInfo {
		l.logf(format, args...)
	}
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if logLevel >= LogLevelError {
		l.logf(format, args...)
	}
}

func (l *defaultLogger) logf(format string, args ...interface{}) {
	if l.tag != "" {
		log.Printf("["+l.tag+"] "+format, args...)
		return
	}
	log.Printf(format, args...)
}
