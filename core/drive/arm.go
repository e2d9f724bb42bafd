package drive

import "fmt"

// MoveArm runs the arm motor at speed; positive raises the arm.
func (d *DriveSystem) MoveArm(speed int) error {
	arm, err := d.robot.Arm()
	if err != nil {
		return err
	}
	d.log.Debugw("arm", map[string]any{"speed": speed})
	if err := arm.TurnOn(speed); err != nil {
		return fmt.Errorf("arm motor: %w", err)
	}
	return nil
}

// StopArm brakes the arm motor. It does nothing if the arm was never used.
func (d *DriveSystem) StopArm() error {
	if !d.robot.ArmInUse() {
		return nil
	}
	arm, err := d.robot.Arm()
	if err != nil {
		return err
	}
	if err := arm.TurnOff(); err != nil {
		return fmt.Errorf("arm motor: %w", err)
	}
	return nil
}
