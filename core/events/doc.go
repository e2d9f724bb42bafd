// Package events defines the events emitted on the event bus.
//
// Available event types:
//   - CallEvent: a remote call was executed (or rejected)
//   - DriveEvent: the drive system changed motor state or ran a routine
//   - StateEvent: a telemetry snapshot of the robot
package events
