// Package diag provides the severity-levelled diagnostics surface used by
// the router identification path. Callers that do not care about diagnostics
// pass a NoOpLogger.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Severity ranks diagnostic messages.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the diagnostics contract. Implementations must be safe to call
// with any severity; filtering is theirs to decide.
type Logger interface {
	Logf(severity Severity, format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// StdLogger writes diagnostics through Go's standard logger, one per
// severity so errors can go to a different stream.
type StdLogger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	minLevel   Severity
}

// NewStdLogger creates a logger writing info and below to stdout and errors
// to stderr, suppressing anything under minLevel.
func NewStdLogger(minLevel Severity) *StdLogger {
	return NewStdLoggerWithWriter(os.Stdout, os.Stderr, minLevel)
}

// NewStdLoggerWithWriter is NewStdLogger with custom output streams, which
// tests use to capture diagnostics.
func NewStdLoggerWithWriter(stdout, stderr io.Writer, minLevel Severity) *StdLogger {
	return &StdLogger{
		debugLog:   log.New(stdout, "DEBUG: ", log.Ltime),
		infoLog:    log.New(stdout, "INFO: ", log.Ltime),
		warningLog: log.New(stdout, "WARNING: ", log.Ltime),
		errorLog:   log.New(stderr, "ERROR: ", log.Ltime),
		minLevel:   minLevel,
	}
}

// Logf logs a formatted message with the given severity.
func (l *StdLogger) Logf(severity Severity, format string, args ...interface{}) {
	if severity < l.minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch severity {
	case SeverityDebug:
		l.debugLog.Output(2, msg)
	case SeverityInfo:
		l.infoLog.Output(2, msg)
	case SeverityWarning:
		l.warningLog.Output(2, msg)
	case SeverityError:
		l.errorLog.Output(2, msg)
	}
}

func (l *StdLogger) Debugf(format string, args ...interface{}) {
	l.Logf(SeverityDebug, format, args...)
}

func (l *StdLogger) Infof(format string, args ...interface{}) {
	l.Logf(SeverityInfo, format, args...)
}

func (l *StdLogger) Warningf(format string, args ...interface{}) {
	l.Logf(SeverityWarning, format, args...)
}

func (l *StdLogger) Errorf(format string, args ...interface{}) {
	l.Logf(SeverityError, format, args...)
}

// NoOpLogger discards every diagnostic.
type NoOpLogger struct{}

// NewNoOpLogger returns a logger that drops everything.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (NoOpLogger) Logf(Severity, string, ...interface{}) {}
func (NoOpLogger) Debugf(string, ...interface{})         {}
func (NoOpLogger) Infof(string, ...interface{})          {}
func (NoOpLogger) Warningf(string, ...interface{})       {}
func (NoOpLogger) Errorf(string, ...interface{})         {}
