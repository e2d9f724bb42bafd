package sim

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kilianp07/ev3remote/core/robot"
)

// proximityInchesPerUnit matches the infrared sensor: 100 units is about
// 70cm.
const proximityInchesPerUnit = 70.0 / 100.0 / 2.54

type colorSensor struct{ p *Platform }

func (c colorSensor) ReflectedLightIntensity() (int, error) {
	if c.p.Travelled() >= c.p.cfg.LineAtInches {
		return c.p.cfg.Line, nil
	}
	return c.p.cfg.Floor, nil
}

type proximitySensor struct{ p *Platform }

func (s proximitySensor) Distance() (int, error) {
	left := s.p.cfg.WallAtInches - s.p.Travelled()
	units := math.Round(left / proximityInchesPerUnit)
	return int(max(0, min(100, units))), nil
}

type touchSensor struct {
	clock clock.Clock
	after time.Duration

	mu      sync.Mutex
	pressed bool
	first   time.Time
}

func (t *touchSensor) set(pressed bool) {
	t.mu.Lock()
	t.pressed = pressed
	t.mu.Unlock()
}

func (t *touchSensor) IsPressed() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	if t.first.IsZero() {
		t.first = now
	}
	if t.after > 0 && now.Sub(t.first) >= t.after {
		return true, nil
	}
	return t.pressed, nil
}

type speaker struct{ p *Platform }

type playback struct{ done <-chan time.Time }

func (pb playback) Wait() error {
	<-pb.done
	return nil
}

func (s speaker) Beep() (robot.Playback, error) {
	return s.Tone(440, 200*time.Millisecond)
}

func (s speaker) Tone(frequency float64, duration time.Duration) (robot.Playback, error) {
	s.p.log.Infof("tone %.0fHz for %v", frequency, duration)
	return playback{done: s.p.clock.After(duration)}, nil
}
