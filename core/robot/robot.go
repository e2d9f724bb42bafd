// Package robot describes the EV3 hardware the drive system talks to: wheel
// and arm motors, the touch, colour and infrared sensors, and the speaker.
//
// Implementations are provided by a Platform (see infra/ev3dev for the real
// brick and infra/sim for a simulated one).
package robot

import "time"

// MotorKind distinguishes the large wheel motors from the medium arm motor.
type MotorKind string

const (
	Wheel MotorKind = "wheel"
	Arm   MotorKind = "arm"
)

// Motor is a tacho motor driven in direct duty-cycle mode.
type Motor interface {
	// TurnOn runs the motor at speed, a duty cycle from -100 to 100.
	TurnOn(speed int) error
	// TurnOff brakes the motor.
	TurnOff() error
	// Position returns the rotation in degrees since the last reset.
	Position() (int, error)
	ResetPosition() error
}

// TouchSensor reports whether its button is held down.
type TouchSensor interface {
	IsPressed() (bool, error)
}

// ColorSensor shines red light and reports the reflected intensity, 0 to 100.
type ColorSensor interface {
	ReflectedLightIntensity() (int, error)
}

// ProximitySensor is the infrared sensor in proximity mode. Distance is in
// sensor units from 0 (touching) to 100 (roughly 70cm).
type ProximitySensor interface {
	Distance() (int, error)
}

// Playback is a sound started by a Beeper or ToneMaker. Sounds are
// non-blocking; Wait blocks until the sound has finished.
type Playback interface {
	Wait() error
}

// Beeper plays the default beep.
type Beeper interface {
	Beep() (Playback, error)
}

// ToneMaker plays a tone of the given frequency in Hz for duration.
type ToneMaker interface {
	Tone(frequency float64, duration time.Duration) (Playback, error)
}

// Platform opens devices on a brick. Motor ports are "A" to "D", sensor
// ports 1 to 4.
type Platform interface {
	Motor(port string, kind MotorKind) (Motor, error)
	TouchSensor(port int) (TouchSensor, error)
	ColorSensor(port int) (ColorSensor, error)
	ProximitySensor(port int) (ProximitySensor, error)
	Beeper() (Beeper, error)
	ToneMaker() (ToneMaker, error)
}
