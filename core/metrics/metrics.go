package metrics

import "github.com/kilianp07/ev3remote/core/events"

// MetricsSink records remote calls for observability purposes.
type MetricsSink interface {
	RecordCall(ev events.CallEvent) error
}

// DriveRecorder records motor commands and routine boundaries.
type DriveRecorder interface {
	RecordDrive(ev events.DriveEvent) error
}

// StateRecorder records robot state snapshots.
type StateRecorder interface {
	RecordState(st events.RobotState) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCall(events.CallEvent) error   { return nil }
func (NopSink) RecordDrive(events.DriveEvent) error { return nil }
func (NopSink) RecordState(events.RobotState) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCall forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordCall(ev events.CallEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCall(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDrive forwards to sinks implementing DriveRecorder.
func (m *MultiSink) RecordDrive(ev events.DriveEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DriveRecorder); ok {
			if err := rec.RecordDrive(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordState forwards to sinks implementing StateRecorder.
func (m *MultiSink) RecordState(st events.RobotState) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StateRecorder); ok {
			if err := rec.RecordState(st); err != nil {
				return err
			}
		}
	}
	return nil
}
