// Package metrics defines the sinks that record what the robot is asked to
// do. Every sink records remote calls; sinks may also implement
// DriveRecorder and StateRecorder. Sinks are built from configuration
// through a registry, and several configured sinks are combined into a
// MultiSink.
package metrics
