package sim

import (
	"fmt"
	"math"
)

// Config shapes the simulated world: a straight track with a black line and
// a wall ahead of the robot.
type Config struct {
	// DegreesPerSecond is the wheel speed at duty cycle 100.
	DegreesPerSecond float64 `json:"degrees_per_second"`
	// WheelCircumference is in inches.
	WheelCircumference float64 `json:"wheel_circumference"`
	// LineAtInches is where the black line starts.
	LineAtInches float64 `json:"line_at_inches"`
	// WallAtInches is the distance to the wall at the start.
	WallAtInches float64 `json:"wall_at_inches"`
	// TouchAfterSeconds presses the touch sensor that long after its first
	// read. Zero leaves it to Press.
	TouchAfterSeconds float64 `json:"touch_after_seconds"`
	Floor             int     `json:"floor"`
	Line              int     `json:"line"`
}

func (c *Config) SetDefaults() {
	if c.DegreesPerSecond <= 0 {
		c.DegreesPerSecond = 1000
	}
	if c.WheelCircumference <= 0 {
		c.WheelCircumference = 1.3 * math.Pi
	}
	if c.LineAtInches <= 0 {
		c.LineAtInches = 24
	}
	if c.WallAtInches <= 0 {
		c.WallAtInches = 36
	}
	if c.Floor == 0 {
		c.Floor = 60
	}
	if c.Line == 0 {
		c.Line = 5
	}
}

func (c Config) Validate() error {
	if c.Floor < 0 || c.Floor > 100 || c.Line < 0 || c.Line > 100 {
		return fmt.Errorf("floor and line must be within 0..100")
	}
	return nil
}
