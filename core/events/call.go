package events

import "time"

// Call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnknown     = "unknown_method"
	OutcomeBadArgs     = "bad_args"
	OutcomeFailed      = "failed"
	OutcomeDropped     = "dropped"
	OutcomeInterrupted = "interrupted"
)

// CallEvent is published once per remote call delivered to a delegate.
type CallEvent struct {
	Method   string
	Outcome  string
	Err      error
	Duration time.Duration
	Time     time.Time
}
