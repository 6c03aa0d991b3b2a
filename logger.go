package bfilter

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states. The failure kinds that collapse into a plain
// rejection in the filter chain are reported here with their underlying cause.
type Logger interface {
	LogUnhandledServeError(err error)
	LogImplicitFlushError(err error)
	LogStreamFailure(err error)
	LogDecodeFailure(err error)
	LogRejection(err error)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogUnhandledServeError(err error) {
	l.Logger.Printf("bfilter: unhandled server error: %s", err)
}

func (l stdLogger) LogImplicitFlushError(err error) {
	l.Logger.Printf("bfilter: error while flushing implicitly: %s", err)
}

func (l stdLogger) LogStreamFailure(err error) {
	l.Logger.Printf("bfilter: body stream error: %s", err)
}

func (l stdLogger) LogDecodeFailure(err error) {
	l.Logger.Printf("bfilter: body decode error: %s", err)
}

func (l stdLogger) LogRejection(err error) {
	l.Logger.Printf("bfilter: request rejected: %s", err)
}

// NewStdLogger returns a Logger that prints to l, or to the standard logger when l is nil.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}
	return stdLogger{l}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) LogUnhandledServeError(error) {}
func (NopLogger) LogImplicitFlushError(error)  {}
func (NopLogger) LogStreamFailure(error)       {}
func (NopLogger) LogDecodeFailure(error)       {}
func (NopLogger) LogRejection(error)           {}

// TestLogger counts each reported state and logs it through the test it was created for.
type TestLogger struct {
	tb testing.TB

	NumLogUnhandledServeError int64
	NumLogImplicitFlushError  int64
	NumLogStreamFailure       int64
	NumLogDecodeFailure       int64
	NumLogRejection           int64
}

// NewTestLogger inits a TestLogger. A nil tb only counts.
func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) logf(format string, args ...any) {
	if l.tb == nil {
		return
	}
	l.tb.Helper()
	l.tb.Logf(format, args...)
}

func (l *TestLogger) LogUnhandledServeError(err error) {
	atomic.AddInt64(&l.NumLogUnhandledServeError, 1)
	l.logf("bfilter: unhandled server error: %s", err)
}

func (l *TestLogger) LogImplicitFlushError(err error) {
	atomic.AddInt64(&l.NumLogImplicitFlushError, 1)
	l.logf("bfilter: error while flushing implicitly: %s", err)
}

func (l *TestLogger) LogStreamFailure(err error) {
	atomic.AddInt64(&l.NumLogStreamFailure, 1)
	l.logf("bfilter: body stream error: %s", err)
}

func (l *TestLogger) LogDecodeFailure(err error) {
	atomic.AddInt64(&l.NumLogDecodeFailure, 1)
	l.logf("bfilter: body decode error: %s", err)
}

func (l *TestLogger) LogRejection(err error) {
	atomic.AddInt64(&l.NumLogRejection, 1)
	l.logf("bfilter: request rejected: %s", err)
}

var (
	_ Logger = &TestLogger{}
	_ Logger = NopLogger{}
)
