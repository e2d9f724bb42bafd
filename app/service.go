// Package app wires the configuration into running services: the receiver
// on the robot, the monitor on the PC and one-shot calls from the command
// line.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/kilianp07/ev3remote/app/plugins"
	"github.com/kilianp07/ev3remote/config"
	"github.com/kilianp07/ev3remote/core/calllog"
	"github.com/kilianp07/ev3remote/core/delegate"
	"github.com/kilianp07/ev3remote/core/drive"
	"github.com/kilianp07/ev3remote/core/events"
	coremetrics "github.com/kilianp07/ev3remote/core/metrics"
	"github.com/kilianp07/ev3remote/core/monitoring"
	"github.com/kilianp07/ev3remote/core/remote"
	"github.com/kilianp07/ev3remote/core/robot"
	_ "github.com/kilianp07/ev3remote/infra/calllog"
	"github.com/kilianp07/ev3remote/infra/logger"
	"github.com/kilianp07/ev3remote/infra/metrics"
	inframon "github.com/kilianp07/ev3remote/infra/monitoring"
	"github.com/kilianp07/ev3remote/infra/mqtt"
	"github.com/kilianp07/ev3remote/infra/telemetry"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// Service receives remote calls over MQTT and runs them on a delegate.
type Service struct {
	Dispatcher *remote.Dispatcher
	Client     *mqtt.Client
	// Drive is nil unless the robot delegate is in use.
	Drive *drive.DriveSystem

	cfg      *config.Config
	connect  func() error
	bus      *eventbus.Bus
	sink     coremetrics.MetricsSink
	closers  []func() error
	reporter *telemetry.Reporter
	monitor  *telemetry.Monitor
	log      logger.Logger
}

// NewReceiver creates the robot side: calls arrive on the EV3 topic and the
// configured delegate executes them.
func NewReceiver(cfg *config.Config, out io.Writer) (*Service, error) {
	s, err := newService(cfg)
	if err != nil {
		return nil, err
	}
	var d remote.Delegate
	switch cfg.Receiver.Delegate {
	case config.DelegatePrinter:
		d = delegate.NewPrinter(out)
	default:
		s.Drive, err = NewDrive(cfg, s.bus)
		if err != nil {
			return nil, err
		}
		d = delegate.NewRobot(s.Drive, out)
	}
	s.listen(d)
	s.connect = s.Client.ConnectToEV3
	if rc := cfg.Receiver; rc.Subscribe != "" || rc.Publish != "" {
		sub, pub := mqtt.SuffixEV3, mqtt.SuffixPC
		if rc.Subscribe != "" {
			sub = rc.Subscribe
		}
		if rc.Publish != "" {
			pub = rc.Publish
		}
		s.connect = func() error { return s.Client.Connect(sub, pub) }
	}
	if cfg.Telemetry.Enabled && s.Drive != nil {
		s.reporter = telemetry.NewReporter(cfg.Telemetry, s.Drive, s.Client,
			telemetry.WithLogger(logger.New("telemetry")),
			telemetry.WithPublisher(s.bus),
			telemetry.WithRegisterer(prometheus.DefaultRegisterer),
		)
	}
	return s, nil
}

// NewMonitor creates the PC side: state reports sent by the robot's
// reporter arrive on the PC topic and are printed to out.
func NewMonitor(cfg *config.Config, out io.Writer) (*Service, error) {
	s, err := newService(cfg)
	if err != nil {
		return nil, err
	}
	s.monitor = telemetry.NewMonitor(cfg.Telemetry, s.bus, out)
	s.listen(s.monitor)
	s.connect = s.Client.ConnectToPC
	return s, nil
}

// newService builds the parts shared by every mode. Metrics, the call log
// and error monitoring all consume the event bus through one collector.
func newService(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg: cfg,
		bus: eventbus.NewWithBuffer(64),
		log: logger.New("service"),
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if c, ok := sink.(interface{ Close() }); ok {
		s.closers = append(s.closers, func() error { c.Close(); return nil })
	}
	sinks := []coremetrics.MetricsSink{sink}

	if cfg.CallLog.Type != "" {
		store, err := calllog.NewStore(cfg.CallLog)
		if err != nil {
			return nil, fmt.Errorf("call log: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		sinks = append(sinks, calllog.Sink{Store: store})
	}
	if cfg.Sentry.DSN != "" {
		mon, err := inframon.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		monitoring.Init(mon)
		s.closers = append(s.closers, func() error { mon.Flush(2 * time.Second); return nil })
		sinks = append(sinks, monitoring.FailureSink{Monitor: mon})
	}

	s.sink = sinks[0]
	if len(sinks) > 1 {
		s.sink = coremetrics.NewMultiSink(sinks...)
	}
	return s, nil
}

func (s *Service) listen(d remote.Delegate) {
	s.Dispatcher = remote.NewDispatcher(d,
		remote.WithQueueSize(s.cfg.Receiver.QueueSize),
		remote.WithDispatcherLogger(logger.New("dispatcher")),
		remote.WithDispatcherPublisher(s.bus),
	)
	s.Client = mqtt.NewClient(s.cfg.MQTT, s.Dispatcher)
}

// NewDrive assembles the configured platform into a drive system.
func NewDrive(cfg *config.Config, bus eventbus.Publisher) (*drive.DriveSystem, error) {
	p, err := plugins.NewPlatform(cfg.Robot.Platform)
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}
	r, err := robot.Assemble(p, cfg.Robot.Ports)
	if err != nil {
		return nil, fmt.Errorf("assemble robot: %w", err)
	}
	opts := []drive.Option{drive.WithLogger(logger.New("drive"))}
	if bus != nil {
		opts = append(opts, drive.WithPublisher(bus))
	}
	return drive.New(r, cfg.Robot.Drive, opts...), nil
}

// Latest returns the last state received by a monitor.
func (s *Service) Latest() (events.RobotState, bool) {
	if s.monitor == nil {
		return events.RobotState{}, false
	}
	return s.monitor.Latest()
}

// Run connects to the broker and executes calls until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if err := s.connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	sub, pub := s.Client.Topics()
	s.log.Infof("listening on %s, replying on %s, methods %v", sub, pub, s.Dispatcher.Methods())

	s.work(ctx)
	s.bus.Close()
	<-collected
	return nil
}

// work runs the dispatcher and the reporter until ctx is cancelled and
// returns once both have exited, so no call can start after Close.
func (s *Service) work(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer monitoring.Recover()
		s.Dispatcher.Run(ctx)
	}()
	if s.reporter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer monitoring.Recover()
			s.reporter.Run(ctx)
		}()
	}
	wg.Wait()
}

// Close disconnects and stops the motors, arm included.
func (s *Service) Close() error {
	var err error
	if s.Client != nil {
		s.Client.Close()
	}
	if s.Drive != nil {
		err = multierr.Append(err, s.Drive.Stop())
		err = multierr.Append(err, s.Drive.StopArm())
	}
	for _, c := range s.closers {
		err = multierr.Append(err, c())
	}
	return err
}
