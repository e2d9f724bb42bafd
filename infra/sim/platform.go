// Package sim is a robot platform without hardware. Wheels turn at a speed
// proportional to their duty cycle and the sensors report what a robot
// driving along a straight track would see.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/core/logger"
	"github.com/kilianp07/ev3remote/core/robot"
)

// Platform hands out simulated devices. Every port has a device.
type Platform struct {
	cfg   Config
	clock clock.Clock
	log   logger.Logger

	mu     sync.Mutex
	motors map[string]*motor
	wheels []*motor
	touch  *touchSensor
}

type Option func(*Platform)

func WithClock(c clock.Clock) Option { return func(p *Platform) { p.clock = c } }

func WithLogger(l logger.Logger) Option {
	return func(p *Platform) {
		if l != nil {
			p.log = l
		}
	}
}

func New(cfg Config, opts ...Option) *Platform {
	cfg.SetDefaults()
	p := &Platform{
		cfg:    cfg,
		clock:  clock.New(),
		log:    logger.Nop{},
		motors: make(map[string]*motor),
	}
	for _, o := range opts {
		o(p)
	}
	p.touch = &touchSensor{clock: p.clock, after: time.Duration(cfg.TouchAfterSeconds * float64(time.Second))}
	return p
}

// Factory adapts New to the platform registry.
func Factory(c clock.Clock, log logger.Logger) factory.Factory[robot.Platform] {
	return func(conf map[string]any) (robot.Platform, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, fmt.Errorf("sim config: %w", err)
		}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return New(cfg, WithClock(c), WithLogger(log)), nil
	}
}

func (p *Platform) Motor(port string, kind robot.MotorKind) (robot.Motor, error) {
	if err := robot.ValidateMotorPort(port); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.motors[port]; ok {
		return m, nil
	}
	m := newMotor(p.clock, p.cfg.DegreesPerSecond)
	p.motors[port] = m
	if kind == robot.Wheel {
		p.wheels = append(p.wheels, m)
	}
	return m, nil
}

// Travelled returns the distance in inches covered by the wheels, averaged
// over both.
func (p *Platform) Travelled() float64 {
	p.mu.Lock()
	wheels := append([]*motor(nil), p.wheels...)
	p.mu.Unlock()
	if len(wheels) == 0 {
		return 0
	}
	var deg float64
	for _, w := range wheels {
		deg += w.absolute()
	}
	return deg / float64(len(wheels)) / 360 * p.cfg.WheelCircumference
}

// Press holds the touch sensor down; Release lets it go.
func (p *Platform) Press()   { p.touch.set(true) }
func (p *Platform) Release() { p.touch.set(false) }

func (p *Platform) TouchSensor(port int) (robot.TouchSensor, error) {
	if err := robot.ValidateSensorPort(port); err != nil {
		return nil, err
	}
	return p.touch, nil
}

func (p *Platform) ColorSensor(port int) (robot.ColorSensor, error) {
	if err := robot.ValidateSensorPort(port); err != nil {
		return nil, err
	}
	return colorSensor{p}, nil
}

func (p *Platform) ProximitySensor(port int) (robot.ProximitySensor, error) {
	if err := robot.ValidateSensorPort(port); err != nil {
		return nil, err
	}
	return proximitySensor{p}, nil
}

func (p *Platform) Beeper() (robot.Beeper, error) { return speaker{p}, nil }

func (p *Platform) ToneMaker() (robot.ToneMaker, error) { return speaker{p}, nil }
