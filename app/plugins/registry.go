// Package plugins holds the registries of pluggable modules selected by
// type name in the configuration.
package plugins

import (
	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/core/robot"
)

// Platforms builds the hardware a robot runs on.
var Platforms = factory.NewRegistry[robot.Platform]()

// RegisterPlatform adds a platform factory identified by name.
func RegisterPlatform(name string, f factory.Factory[robot.Platform]) error {
	return Platforms.Register(name, f)
}

// NewPlatform creates the platform selected by cfg.
func NewPlatform(cfg factory.ModuleConfig) (robot.Platform, error) {
	return Platforms.Create(cfg)
}
