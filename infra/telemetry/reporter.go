// Package telemetry reports the robot's state to the PC. The Reporter runs
// next to the drive system and pushes a robot_state call every interval;
// the Monitor is the PC-side delegate that receives those calls.
package telemetry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/logger"
	"github.com/kilianp07/ev3remote/core/remote"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// DefaultMethod is the remote call carrying a state snapshot.
const DefaultMethod = "robot_state"

// StateSource is implemented by drive.DriveSystem.
type StateSource interface {
	State() (events.RobotState, error)
}

// Reporter periodically reads the robot state, publishes it on the bus and
// sends it to the peer.
type Reporter struct {
	cfg    Config
	source StateSource
	sender remote.Sender
	bus    eventbus.Publisher
	clock  clock.Clock
	log    logger.Logger

	reports prometheus.Counter
	errors  prometheus.Counter
	last    prometheus.Gauge
}

type Option func(*Reporter)

func WithClock(c clock.Clock) Option { return func(r *Reporter) { r.clock = c } }

func WithLogger(l logger.Logger) Option { return func(r *Reporter) { r.log = l } }

func WithPublisher(p eventbus.Publisher) Option { return func(r *Reporter) { r.bus = p } }

// WithRegisterer exposes the reporter counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Reporter) {
		for _, c := range []prometheus.Collector{r.reports, r.errors, r.last} {
			if err := reg.Register(c); err != nil {
				r.log.Warnf("register telemetry metric: %v", err)
			}
		}
	}
}

// NewReporter creates a reporter. A nil sender only publishes locally.
func NewReporter(cfg Config, source StateSource, sender remote.Sender, opts ...Option) *Reporter {
	r := &Reporter{
		cfg:     cfg,
		source:  source,
		sender:  sender,
		bus:     eventbus.Nop{},
		clock:   clock.New(),
		log:     logger.Nop{},
		reports: prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_reports_total", Help: "Number of state reports sent"}),
		errors:  prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_report_errors_total", Help: "Number of failed state reads or sends"}),
		last:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_report_timestamp_seconds", Help: "Unix timestamp of the last state report"}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run reports until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	ticker := r.clock.Ticker(time.Duration(r.cfg.Interval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.Report(); err != nil {
				r.log.Warnf("telemetry: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Report sends one snapshot.
func (r *Reporter) Report() error {
	st, err := r.source.State()
	if err != nil {
		r.errors.Inc()
		return err
	}
	r.bus.Publish(events.StateEvent{State: st})
	if r.sender != nil {
		if err := r.sender.SendMessage(r.cfg.MethodName(), st); err != nil {
			r.errors.Inc()
			return err
		}
	}
	r.reports.Inc()
	r.last.Set(float64(r.clock.Now().Unix()))
	return nil
}
