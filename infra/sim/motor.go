package sim

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// motor integrates its position from the commanded duty cycle.
type motor struct {
	clock clock.Clock
	dps   float64

	mu       sync.Mutex
	speed    int
	position float64
	// offset is subtracted from the absolute position on reads.
	offset  float64
	updated time.Time
}

func newMotor(c clock.Clock, dps float64) *motor {
	return &motor{clock: c, dps: dps, updated: c.Now()}
}

// advance must be called with mu held.
func (m *motor) advance() {
	now := m.clock.Now()
	dt := now.Sub(m.updated).Seconds()
	if dt > 0 {
		m.position += float64(m.speed) / 100 * m.dps * dt
	}
	m.updated = now
}

func (m *motor) TurnOn(speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	// Duty cycles beyond full power saturate like the real driver.
	m.speed = max(-100, min(100, speed))
	return nil
}

func (m *motor) TurnOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	m.speed = 0
	return nil
}

func (m *motor) Position() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	return int(m.position - m.offset), nil
}

func (m *motor) ResetPosition() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	m.offset = m.position
	return nil
}

// absolute returns the degrees turned since the motor was created.
func (m *motor) absolute() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advance()
	return m.position
}

func (m *motor) Speed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}
