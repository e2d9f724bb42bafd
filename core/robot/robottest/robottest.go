// Package robottest provides in-memory robot hardware for tests.
package robottest

import (
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/ev3remote/core/robot"
)

// ErrUnplugged is returned for devices set to nil on a Platform.
var ErrUnplugged = errors.New("unplugged")

// Motor records the speeds it is given.
type Motor struct {
	mu       sync.Mutex
	Speeds   []int
	Stops    int
	Position int
	// Step is added to Position on every read while the motor runs.
	Step    int
	running bool
	OnErr   error
	OffErr  error
}

func (m *Motor) TurnOn(speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OnErr != nil {
		return m.OnErr
	}
	m.Speeds = append(m.Speeds, speed)
	m.running = true
	return nil
}

func (m *Motor) TurnOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops++
	m.running = false
	return m.OffErr
}

func (m *Motor) Read() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.Position += m.Step
	}
	return m.Position, nil
}

func (m *Motor) ResetPosition() error {
	m.mu.Lock()
	m.Position = 0
	m.mu.Unlock()
	return nil
}

// LastSpeed returns the most recent speed, or 0.
func (m *Motor) LastSpeed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Speeds) == 0 {
		return 0
	}
	return m.Speeds[len(m.Speeds)-1]
}

func (m *Motor) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stops
}

// Readings replays Values; the last one repeats forever.
type Readings struct {
	mu     sync.Mutex
	Values []int
	reads  int
	Err    error
}

func (r *Readings) next() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	i := r.reads
	if i >= len(r.Values) {
		i = len(r.Values) - 1
	}
	r.reads++
	return r.Values[i], nil
}

// Reads returns how many values have been read.
func (r *Readings) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type Color struct{ Readings }

func (c *Color) ReflectedLightIntensity() (int, error) { return c.next() }

type Proximity struct{ Readings }

func (p *Proximity) Distance() (int, error) { return p.next() }

// Touch reports pressed from the PressedAt-th read on. Zero never presses.
type Touch struct {
	mu        sync.Mutex
	PressedAt int
	reads     int
}

func (t *Touch) IsPressed() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reads++
	return t.PressedAt > 0 && t.reads >= t.PressedAt, nil
}

type playback struct{ s *Sound }

func (p playback) Wait() error {
	p.s.mu.Lock()
	p.s.waits++
	p.s.mu.Unlock()
	return nil
}

// Sound records beeps and tone frequencies.
type Sound struct {
	mu    sync.Mutex
	beeps int
	freqs []float64
	waits int
}

func (s *Sound) Tone(freq float64, _ time.Duration) (robot.Playback, error) {
	s.mu.Lock()
	s.freqs = append(s.freqs, freq)
	s.mu.Unlock()
	return playback{s}, nil
}

func (s *Sound) Beep() (robot.Playback, error) {
	s.mu.Lock()
	s.beeps++
	s.mu.Unlock()
	return playback{s}, nil
}

// Waits counts the playbacks that have been waited on.
func (s *Sound) Waits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

func (s *Sound) Beeps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beeps
}

func (s *Sound) Freqs() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.freqs...)
}

// Platform serves the devices above. Motors are keyed by port letter.
type Platform struct {
	Motors    map[string]*Motor
	Color     *Color
	Proximity *Proximity
	Touch     *Touch
	Sound     *Sound
}

// NewPlatform returns wheel motors on B and C, an arm motor on A, a colour
// sensor reading 50, a proximity sensor reading 100 and a touch sensor that
// is never pressed.
func NewPlatform() *Platform {
	return &Platform{
		Motors:    map[string]*Motor{"A": {}, "B": {}, "C": {}},
		Color:     &Color{Readings{Values: []int{50}}},
		Proximity: &Proximity{Readings{Values: []int{100}}},
		Touch:     &Touch{},
		Sound:     &Sound{},
	}
}

func (p *Platform) Motor(port string, _ robot.MotorKind) (robot.Motor, error) {
	m, ok := p.Motors[port]
	if !ok {
		return nil, ErrUnplugged
	}
	return positionAdapter{m}, nil
}

func (p *Platform) TouchSensor(int) (robot.TouchSensor, error) {
	if p.Touch == nil {
		return nil, ErrUnplugged
	}
	return p.Touch, nil
}

func (p *Platform) ColorSensor(int) (robot.ColorSensor, error) {
	if p.Color == nil {
		return nil, ErrUnplugged
	}
	return p.Color, nil
}

func (p *Platform) ProximitySensor(int) (robot.ProximitySensor, error) {
	if p.Proximity == nil {
		return nil, ErrUnplugged
	}
	return p.Proximity, nil
}

func (p *Platform) Beeper() (robot.Beeper, error) {
	if p.Sound == nil {
		return nil, ErrUnplugged
	}
	return p.Sound, nil
}

func (p *Platform) ToneMaker() (robot.ToneMaker, error) {
	if p.Sound == nil {
		return nil, ErrUnplugged
	}
	return p.Sound, nil
}

// positionAdapter exposes Motor.Read as robot.Motor.Position, since the
// exported Position field takes that name.
type positionAdapter struct{ *Motor }

func (a positionAdapter) Position() (int, error) { return a.Read() }
