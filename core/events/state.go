package events

import "time"

// RobotState is a point-in-time reading of the robot. Sensor readings are
// nil when the sensor could not be read.
type RobotState struct {
	LeftPosition  int       `json:"left_position"`
	RightPosition int       `json:"right_position"`
	LeftSpeed     int       `json:"left_speed"`
	RightSpeed    int       `json:"right_speed"`
	Reflected     *int      `json:"reflected,omitempty"`
	Proximity     *int      `json:"proximity,omitempty"`
	Pressed       *bool     `json:"pressed,omitempty"`
	Time          time.Time `json:"time"`
}

// StateEvent carries a telemetry snapshot.
type StateEvent struct {
	State RobotState
}
