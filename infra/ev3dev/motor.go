package ev3dev

import (
	"strconv"

	"github.com/kilianp07/ev3remote/core/robot"
)

var motorDrivers = map[robot.MotorKind]string{
	robot.Wheel: "lego-ev3-l-motor",
	robot.Arm:   "lego-ev3-m-motor",
}

// motor is a tacho motor in run-direct mode, where duty_cycle_sp takes
// effect immediately.
type motor struct {
	sys sysfs
	dir string
}

func (m *motor) TurnOn(speed int) error {
	if err := m.sys.write(m.dir, "duty_cycle_sp", strconv.Itoa(speed)); err != nil {
		return err
	}
	return m.sys.write(m.dir, "command", "run-direct")
}

func (m *motor) TurnOff() error {
	if err := m.sys.write(m.dir, "stop_action", "brake"); err != nil {
		return err
	}
	return m.sys.write(m.dir, "command", "stop")
}

func (m *motor) Position() (int, error) { return m.sys.readInt(m.dir, "position") }

func (m *motor) ResetPosition() error { return m.sys.write(m.dir, "position", "0") }
