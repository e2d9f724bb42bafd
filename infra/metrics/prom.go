package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ev3remote/core/events"
	coremetrics "github.com/kilianp07/ev3remote/core/metrics"
)

// PromSink records remote calls and motor commands in Prometheus metrics.
type PromSink struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	drive    *prometheus.CounterVec
	duty     *prometheus.GaugeVec
	position *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remote_calls_total",
			Help: "Remote calls received, by method and outcome",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "remote_call_duration_seconds",
			Help:    "Time spent executing remote calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		drive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_commands_total",
			Help: "Drive system commands, by action",
		}, []string{"action"}),
		duty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "motor_duty_cycle",
			Help: "Last commanded duty cycle per wheel",
		}, []string{"wheel"}),
		position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "motor_position_degrees",
			Help: "Wheel position reported by telemetry",
		}, []string{"wheel"}),
	}

	var err error
	if s.calls, err = register(reg, s.calls); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.drive, err = register(reg, s.drive); err != nil {
		return nil, err
	}
	if s.duty, err = register(reg, s.duty); err != nil {
		return nil, err
	}
	if s.position, err = register(reg, s.position); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same name,
// if any, so sinks can be created more than once per process.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordCall(ev events.CallEvent) error {
	s.calls.WithLabelValues(ev.Method, ev.Outcome).Inc()
	if ev.Outcome != events.OutcomeDropped {
		s.duration.WithLabelValues(ev.Method).Observe(ev.Duration.Seconds())
	}
	return nil
}

func (s *PromSink) RecordDrive(ev events.DriveEvent) error {
	s.drive.WithLabelValues(ev.Action).Inc()
	switch ev.Action {
	case events.ActionGo:
		if ev.Err == nil {
			s.duty.WithLabelValues("left").Set(float64(ev.LeftSpeed))
			s.duty.WithLabelValues("right").Set(float64(ev.RightSpeed))
		}
	case events.ActionStop:
		s.duty.WithLabelValues("left").Set(0)
		s.duty.WithLabelValues("right").Set(0)
	}
	return nil
}

func (s *PromSink) RecordState(st events.RobotState) error {
	s.position.WithLabelValues("left").Set(float64(st.LeftPosition))
	s.position.WithLabelValues("right").Set(float64(st.RightPosition))
	return nil
}

var (
	_ coremetrics.DriveRecorder = (*PromSink)(nil)
	_ coremetrics.StateRecorder = (*PromSink)(nil)
)
