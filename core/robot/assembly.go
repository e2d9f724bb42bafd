package robot

import (
	"fmt"
	"sync"
)

// Robot is an assembled brick: the two wheel motors are opened up front,
// the arm motor, sensors and sound are opened on first use and then cached.
type Robot struct {
	Left  Motor
	Right Motor

	platform Platform
	ports    Ports

	mu        sync.Mutex
	arm       Motor
	touch     TouchSensor
	color     ColorSensor
	proximity ProximitySensor
	beeper    Beeper
	tones     ToneMaker
}

// Assemble opens the wheel motors on the configured ports.
func Assemble(p Platform, ports Ports) (*Robot, error) {
	ports.SetDefaults()
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	left, err := p.Motor(ports.Left, Wheel)
	if err != nil {
		return nil, fmt.Errorf("left motor: %w", err)
	}
	right, err := p.Motor(ports.Right, Wheel)
	if err != nil {
		return nil, fmt.Errorf("right motor: %w", err)
	}
	return &Robot{Left: left, Right: right, platform: p, ports: ports}, nil
}

// Ports returns the wiring the robot was assembled with.
func (r *Robot) Ports() Ports { return r.ports }

func (r *Robot) Arm() (Motor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.arm == nil {
		m, err := r.platform.Motor(r.ports.Arm, Arm)
		if err != nil {
			return nil, fmt.Errorf("arm motor: %w", err)
		}
		r.arm = m
	}
	return r.arm, nil
}

// ArmInUse reports whether the arm motor has been opened.
func (r *Robot) ArmInUse() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.arm != nil
}

func (r *Robot) Touch() (TouchSensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touch == nil {
		s, err := r.platform.TouchSensor(r.ports.Touch)
		if err != nil {
			return nil, fmt.Errorf("touch sensor: %w", err)
		}
		r.touch = s
	}
	return r.touch, nil
}

func (r *Robot) Color() (ColorSensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.color == nil {
		s, err := r.platform.ColorSensor(r.ports.Color)
		if err != nil {
			return nil, fmt.Errorf("color sensor: %w", err)
		}
		r.color = s
	}
	return r.color, nil
}

func (r *Robot) Proximity() (ProximitySensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proximity == nil {
		s, err := r.platform.ProximitySensor(r.ports.Proximity)
		if err != nil {
			return nil, fmt.Errorf("proximity sensor: %w", err)
		}
		r.proximity = s
	}
	return r.proximity, nil
}

func (r *Robot) Beeper() (Beeper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beeper == nil {
		b, err := r.platform.Beeper()
		if err != nil {
			return nil, fmt.Errorf("beeper: %w", err)
		}
		r.beeper = b
	}
	return r.beeper, nil
}

func (r *Robot) ToneMaker() (ToneMaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tones == nil {
		t, err := r.platform.ToneMaker()
		if err != nil {
			return nil, fmt.Errorf("tone maker: %w", err)
		}
		r.tones = t
	}
	return r.tones, nil
}
