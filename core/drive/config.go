package drive

import (
	"fmt"
	"math"
	"time"
)

// Config tunes the movement routines.
type Config struct {
	// PollIntervalMS is how often routines re-check time or sensors.
	PollIntervalMS int `json:"poll_interval_ms"`
	// WheelCircumference is in inches.
	WheelCircumference float64 `json:"wheel_circumference"`
	// SecondsPerInchAt100 converts distance to time for the time based
	// routine. The classroom default of 10 is known to be inaccurate.
	SecondsPerInchAt100 float64 `json:"seconds_per_inch_at_100"`
	// BlackThreshold is the reflected intensity at or below which the
	// surface is considered black.
	BlackThreshold int `json:"black_threshold"`
	// ProximityInchesPerUnit converts infrared proximity units to inches.
	ProximityInchesPerUnit float64 `json:"proximity_inches_per_unit"`
	ToneMinHz              float64 `json:"tone_min_hz"`
	ToneMaxHz              float64 `json:"tone_max_hz"`
	ToneSteps              int     `json:"tone_steps"`
	ToneDurationMS         int     `json:"tone_duration_ms"`
}

// SetDefaults applies the values used in the classroom exercises.
func (c *Config) SetDefaults() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 10
	}
	if c.WheelCircumference <= 0 {
		c.WheelCircumference = 1.3 * math.Pi
	}
	if c.SecondsPerInchAt100 <= 0 {
		c.SecondsPerInchAt100 = 10
	}
	if c.BlackThreshold == 0 {
		c.BlackThreshold = 10
	}
	if c.ProximityInchesPerUnit <= 0 {
		// 100 units is about 70cm.
		c.ProximityInchesPerUnit = 70.0 / 100.0 / 2.54
	}
	if c.ToneMinHz <= 0 {
		c.ToneMinHz = 220
	}
	if c.ToneMaxHz <= 0 {
		c.ToneMaxHz = 1760
	}
	if c.ToneSteps <= 0 {
		c.ToneSteps = 12
	}
	if c.ToneDurationMS <= 0 {
		c.ToneDurationMS = 150
	}
}

// Validate checks value ranges after defaults have been applied.
func (c Config) Validate() error {
	if c.BlackThreshold < 0 || c.BlackThreshold > 100 {
		return fmt.Errorf("black_threshold must be within 0..100")
	}
	if c.ToneMinHz > c.ToneMaxHz {
		return fmt.Errorf("tone_min_hz > tone_max_hz")
	}
	return nil
}

func (c Config) pollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) toneDuration() time.Duration {
	return time.Duration(c.ToneDurationMS) * time.Millisecond
}
