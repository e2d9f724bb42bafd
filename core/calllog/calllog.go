// Package calllog keeps a history of the remote calls a receiver executed.
// Stores are selected by type name, like metrics sinks, and are fed from the
// event bus through Sink.
package calllog

import (
	"context"
	"time"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/factory"
)

// Record is one executed, dropped or rejected call.
type Record struct {
	Time       time.Time `json:"time"`
	Method     string    `json:"method"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

// NewRecord converts a call event.
func NewRecord(ev events.CallEvent) Record {
	r := Record{
		Time:       ev.Time,
		Method:     ev.Method,
		Outcome:    ev.Outcome,
		DurationMS: float64(ev.Duration) / float64(time.Millisecond),
	}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
	}
	return r
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Method  string
	Outcome string
}

// Match reports whether r passes the filter.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.Method != "" && r.Method != q.Method {
		return false
	}
	return q.Outcome == "" || r.Outcome == q.Outcome
}

// Store persists records and supports querying them back in time order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates the store selected by cfg.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	return storeRegistry.Create(cfg)
}

// Sink appends every call event to a store. It satisfies the metrics sink
// interface so the event collector can feed it.
type Sink struct {
	Store Store
}

func (s Sink) RecordCall(ev events.CallEvent) error {
	return s.Store.Append(context.Background(), NewRecord(ev))
}
