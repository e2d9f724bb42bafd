// Package monitoring reports errors to an external tracker. The process-wide
// monitor is a no-op until Init installs one.
package monitoring

import (
	"errors"
	"time"

	"github.com/kilianp07/ev3remote/core/events"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// ReportPanic records a recovered panic value.
	ReportPanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) ReportPanic(any)                           {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover reports a panic and panics again. Defer it directly at the top of
// long-lived goroutines; wrapping it in another function stops it from
// seeing the panic.
func Recover() {
	if r := recover(); r != nil {
		current.ReportPanic(r)
		panic(r)
	}
}

// Flush waits for buffered reports to be sent.
func Flush(d time.Duration) { current.Flush(d) }

// FailureSink forwards failed remote calls to a monitor. Interrupted and
// rejected calls are expected in normal use and are not reported.
type FailureSink struct {
	Monitor Monitor
}

func (s FailureSink) RecordCall(ev events.CallEvent) error {
	if ev.Outcome != events.OutcomeFailed && ev.Outcome != events.OutcomeDropped {
		return nil
	}
	err := ev.Err
	if err == nil {
		err = errors.New(ev.Outcome)
	}
	s.Monitor.CaptureException(err, map[string]string{"method": ev.Method, "outcome": ev.Outcome})
	return nil
}
