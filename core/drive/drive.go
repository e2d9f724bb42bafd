// Package drive moves the robot: plain go/stop on the two wheel motors plus
// routines that run until a time, distance or sensor condition is met.
//
// Routines poll their condition every PollIntervalMS using the injected
// clock. Cancelling the context stops both motors and returns ctx.Err().
package drive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/logger"
	"github.com/kilianp07/ev3remote/core/robot"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// ErrZeroSpeed is returned by distance routines asked to move at speed 0.
var ErrZeroSpeed = errors.New("speed must not be zero")

// Routine names, as used in events and remote calls.
const (
	RoutineSeconds       = "go_straight_for_seconds"
	RoutineInchesTime    = "go_straight_for_inches_using_time"
	RoutineInchesSensor  = "go_straight_for_inches_using_sensor"
	RoutineUntilBlack    = "go_straight_until_black"
	RoutineUntilDistance = "go_forward_until_distance_is_less_than"
	RoutineTones         = "tones_until_touch_sensor_is_pressed"
)

// DriveSystem controls the robot's motion via Go and Stop, along with
// routines that go and stop under control of a timer or a sensor.
type DriveSystem struct {
	robot *robot.Robot
	cfg   Config
	clock clock.Clock
	log   logger.Logger
	bus   eventbus.Publisher
	tones []float64

	mu         sync.Mutex
	leftSpeed  int
	rightSpeed int
}

// Option customises a DriveSystem.
type Option func(*DriveSystem)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option { return func(d *DriveSystem) { d.clock = c } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(d *DriveSystem) { d.log = l } }

// WithPublisher sets where drive events are published.
func WithPublisher(p eventbus.Publisher) Option { return func(d *DriveSystem) { d.bus = p } }

// New creates a DriveSystem over the robot's wheel motors.
func New(r *robot.Robot, cfg Config, opts ...Option) *DriveSystem {
	cfg.SetDefaults()
	d := &DriveSystem{
		robot: r,
		cfg:   cfg,
		clock: clock.New(),
		log:   logger.Nop{},
		bus:   eventbus.Nop{},
	}
	for _, o := range opts {
		o(d)
	}
	d.tones = toneLadder(cfg.ToneMinHz, cfg.ToneMaxHz, cfg.ToneSteps)
	return d
}

// Robot returns the hardware the drive system controls.
func (d *DriveSystem) Robot() *robot.Robot { return d.robot }

// Go turns both wheel motors on. Speeds are duty cycles from -100 to 100 and
// are passed to the motors without validation.
func (d *DriveSystem) Go(leftSpeed, rightSpeed int) error {
	err := d.robot.Left.TurnOn(leftSpeed)
	if err != nil {
		err = fmt.Errorf("left motor: %w", err)
	} else if rerr := d.robot.Right.TurnOn(rightSpeed); rerr != nil {
		err = fmt.Errorf("right motor: %w", rerr)
	}
	if err == nil {
		d.mu.Lock()
		d.leftSpeed, d.rightSpeed = leftSpeed, rightSpeed
		d.mu.Unlock()
	}
	d.log.Debugw("go", map[string]any{"left": leftSpeed, "right": rightSpeed})
	d.bus.Publish(events.DriveEvent{Action: events.ActionGo, LeftSpeed: leftSpeed, RightSpeed: rightSpeed, Err: err, Time: d.clock.Now()})
	return err
}

// Stop brakes both motors. Both are always commanded, even if the first
// one fails.
func (d *DriveSystem) Stop() error {
	var err error
	if lerr := d.robot.Left.TurnOff(); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("left motor: %w", lerr))
	}
	if rerr := d.robot.Right.TurnOff(); rerr != nil {
		err = multierr.Append(err, fmt.Errorf("right motor: %w", rerr))
	}
	d.mu.Lock()
	d.leftSpeed, d.rightSpeed = 0, 0
	d.mu.Unlock()
	d.log.Debugw("stop", nil)
	d.bus.Publish(events.DriveEvent{Action: events.ActionStop, Err: err, Time: d.clock.Now()})
	return err
}

// GoStraightForSeconds goes at speed until the given number of seconds has
// elapsed, then stops.
func (d *DriveSystem) GoStraightForSeconds(ctx context.Context, seconds float64, speed int) error {
	return d.goStraightFor(ctx, RoutineSeconds, seconds, speed)
}

func (d *DriveSystem) goStraightFor(ctx context.Context, routine string, seconds float64, speed int) error {
	target := time.Duration(seconds * float64(time.Second))
	start := d.clock.Now()
	return d.runUntil(ctx, routine, speed, speed, func() (bool, error) {
		return d.clock.Since(start) >= target, nil
	})
}

// GoStraightForInchesUsingTime converts the distance to a duration with
// SecondsPerInchAt100 and goes straight for that long.
func (d *DriveSystem) GoStraightForInchesUsingTime(ctx context.Context, inches float64, speed int) error {
	if speed == 0 {
		return ErrZeroSpeed
	}
	seconds := math.Abs(inches * d.cfg.SecondsPerInchAt100 / float64(speed))
	return d.goStraightFor(ctx, RoutineInchesTime, seconds, speed)
}

// GoStraightForInchesUsingSensor goes straight until the left wheel has
// turned far enough to cover the distance, measured by its encoder.
func (d *DriveSystem) GoStraightForInchesUsingSensor(ctx context.Context, inches float64, speed int) error {
	if speed == 0 {
		return ErrZeroSpeed
	}
	if err := d.robot.Left.ResetPosition(); err != nil {
		return fmt.Errorf("reset position: %w", err)
	}
	inchesPerDegree := d.cfg.WheelCircumference / 360
	target := math.Abs(inches) / inchesPerDegree
	return d.runUntil(ctx, RoutineInchesSensor, speed, speed, func() (bool, error) {
		pos, err := d.robot.Left.Position()
		if err != nil {
			return false, fmt.Errorf("left position: %w", err)
		}
		return math.Abs(float64(pos)) >= target, nil
	})
}

// GoStraightUntilBlack goes straight until the colour sensor sees a black
// surface.
func (d *DriveSystem) GoStraightUntilBlack(ctx context.Context, speed int) error {
	sensor, err := d.robot.Color()
	if err != nil {
		return err
	}
	return d.runUntil(ctx, RoutineUntilBlack, speed, speed, func() (bool, error) {
		v, err := sensor.ReflectedLightIntensity()
		if err != nil {
			return false, fmt.Errorf("reflected light: %w", err)
		}
		return v <= d.cfg.BlackThreshold, nil
	})
}

// GoForwardUntilDistanceIsLessThan goes forward until the infrared sensor
// reports an object nearer than the given number of inches.
func (d *DriveSystem) GoForwardUntilDistanceIsLessThan(ctx context.Context, inches float64, speed int) error {
	sensor, err := d.robot.Proximity()
	if err != nil {
		return err
	}
	return d.runUntil(ctx, RoutineUntilDistance, speed, speed, func() (bool, error) {
		v, err := sensor.Distance()
		if err != nil {
			return false, fmt.Errorf("proximity: %w", err)
		}
		return float64(v)*d.cfg.ProximityInchesPerUnit < inches, nil
	})
}

// TonesUntilTouchSensorIsPressed plays an increasing sequence of short
// tones, starting over at the lowest one after the highest, until the touch
// sensor is pressed.
func (d *DriveSystem) TonesUntilTouchSensorIsPressed(ctx context.Context) (err error) {
	touch, err := d.robot.Touch()
	if err != nil {
		return err
	}
	tones, err := d.robot.ToneMaker()
	if err != nil {
		return err
	}
	d.routineStarted(RoutineTones)
	defer func() { d.routineFinished(RoutineTones, err) }()

	for i := 0; ; i++ {
		pressed, err := touch.IsPressed()
		if err != nil {
			return fmt.Errorf("touch: %w", err)
		}
		if pressed {
			return nil
		}
		freq := d.tones[i%len(d.tones)]
		pb, err := tones.Tone(freq, d.cfg.toneDuration())
		if err != nil {
			return fmt.Errorf("tone %.0fHz: %w", freq, err)
		}
		select {
		case <-ctx.Done():
			d.reap(pb, fmt.Sprintf("tone %.0fHz", freq))
			return ctx.Err()
		case <-d.clock.After(d.cfg.toneDuration()):
		}
		if err := pb.Wait(); err != nil {
			d.log.Warnf("tone %.0fHz: %v", freq, err)
		}
	}
}

// State reads the motors and, where available, the sensors.
func (d *DriveSystem) State() (events.RobotState, error) {
	var st events.RobotState
	var err error
	if st.LeftPosition, err = d.robot.Left.Position(); err != nil {
		return st, fmt.Errorf("left position: %w", err)
	}
	if st.RightPosition, err = d.robot.Right.Position(); err != nil {
		return st, fmt.Errorf("right position: %w", err)
	}
	d.mu.Lock()
	st.LeftSpeed, st.RightSpeed = d.leftSpeed, d.rightSpeed
	d.mu.Unlock()
	if s, err := d.robot.Color(); err == nil {
		if v, err := s.ReflectedLightIntensity(); err == nil {
			st.Reflected = &v
		}
	}
	if s, err := d.robot.Proximity(); err == nil {
		if v, err := s.Distance(); err == nil {
			st.Proximity = &v
		}
	}
	if s, err := d.robot.Touch(); err == nil {
		if v, err := s.IsPressed(); err == nil {
			st.Pressed = &v
		}
	}
	st.Time = d.clock.Now()
	return st, nil
}

// runUntil goes at the given speeds, polls done until it reports true and
// then stops. Errors from done or ctx also stop the motors.
func (d *DriveSystem) runUntil(ctx context.Context, routine string, left, right int, done func() (bool, error)) (err error) {
	d.routineStarted(routine)
	defer func() { d.routineFinished(routine, err) }()

	if err := d.Go(left, right); err != nil {
		return multierr.Append(err, d.Stop())
	}
	ticker := d.clock.Ticker(d.cfg.pollInterval())
	defer ticker.Stop()
	for {
		ok, err := done()
		if err != nil {
			return multierr.Append(err, d.Stop())
		}
		if ok {
			return d.Stop()
		}
		select {
		case <-ctx.Done():
			return multierr.Append(ctx.Err(), d.Stop())
		case <-ticker.C:
		}
	}
}

func (d *DriveSystem) routineStarted(routine string) {
	d.log.Infof("%s started", routine)
	d.bus.Publish(events.DriveEvent{Action: events.ActionRoutineStart, Routine: routine, Time: d.clock.Now()})
}

func (d *DriveSystem) routineFinished(routine string, err error) {
	if err != nil {
		d.log.Warnf("%s ended: %v", routine, err)
	} else {
		d.log.Infof("%s finished", routine)
	}
	d.bus.Publish(events.DriveEvent{Action: events.ActionRoutineFinish, Routine: routine, Err: err, Time: d.clock.Now()})
}

func toneLadder(minHz, maxHz float64, steps int) []float64 {
	if steps < 2 || minHz == maxHz {
		return []float64{minHz}
	}
	return floats.Span(make([]float64, steps), minHz, maxHz)
}
