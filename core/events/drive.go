package events

import "time"

// Drive actions.
const (
	ActionGo            = "go"
	ActionStop          = "stop"
	ActionRoutineStart  = "routine_start"
	ActionRoutineFinish = "routine_finish"
)

// DriveEvent is emitted by the drive system. Routine is empty for plain
// go/stop commands.
type DriveEvent struct {
	Action     string
	Routine    string
	LeftSpeed  int
	RightSpeed int
	Err        error
	Time       time.Time
}
