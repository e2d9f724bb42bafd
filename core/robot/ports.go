package robot

import (
	"fmt"
	"strings"
)

// Ports maps each device of the robot to the brick port it is plugged into.
type Ports struct {
	Left      string `json:"left"`
	Right     string `json:"right"`
	Arm       string `json:"arm"`
	Touch     int    `json:"touch"`
	Color     int    `json:"color"`
	Proximity int    `json:"proximity"`
}

// SetDefaults applies the classroom wiring: wheels on B and C, arm on A,
// touch sensor on 1, colour sensor on 3 and infrared sensor on 4.
func (p *Ports) SetDefaults() {
	if p.Left == "" {
		p.Left = "B"
	}
	if p.Right == "" {
		p.Right = "C"
	}
	if p.Arm == "" {
		p.Arm = "A"
	}
	if p.Touch == 0 {
		p.Touch = 1
	}
	if p.Color == 0 {
		p.Color = 3
	}
	if p.Proximity == 0 {
		p.Proximity = 4
	}
}

// Validate checks every port is addressable.
func (p Ports) Validate() error {
	for _, m := range []string{p.Left, p.Right, p.Arm} {
		if err := ValidateMotorPort(m); err != nil {
			return err
		}
	}
	if p.Left == p.Right {
		return fmt.Errorf("left and right motors share port %s", p.Left)
	}
	if p.Arm == p.Left || p.Arm == p.Right {
		return fmt.Errorf("arm motor shares port %s with a wheel", p.Arm)
	}
	for _, s := range []int{p.Touch, p.Color, p.Proximity} {
		if err := ValidateSensorPort(s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMotorPort accepts "A" to "D".
func ValidateMotorPort(port string) error {
	if len(port) != 1 || !strings.Contains("ABCD", port) {
		return fmt.Errorf("%w: motor port %q", ErrBadPort, port)
	}
	return nil
}

// ValidateSensorPort accepts 1 to 4.
func ValidateSensorPort(port int) error {
	if port < 1 || port > 4 {
		return fmt.Errorf("%w: sensor port %d", ErrBadPort, port)
	}
	return nil
}
