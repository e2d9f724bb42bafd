package config

import (
	"fmt"

	"github.com/kilianp07/ev3remote/core/drive"
	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/core/robot"
)

// RobotConfig selects the hardware platform and how it is wired.
type RobotConfig struct {
	// Platform is "ev3dev" on the brick or "sim" anywhere else.
	Platform factory.ModuleConfig `json:"platform"`
	Ports    robot.Ports          `json:"ports"`
	Drive    drive.Config         `json:"drive"`
}

func (c *RobotConfig) SetDefaults() {
	if c.Platform.Type == "" {
		c.Platform.Type = "ev3dev"
	}
	c.Ports.SetDefaults()
	c.Drive.SetDefaults()
}

func (c RobotConfig) Validate() error {
	if err := c.Ports.Validate(); err != nil {
		return err
	}
	if err := c.Drive.Validate(); err != nil {
		return fmt.Errorf("drive: %w", err)
	}
	return nil
}

// Delegates a receiver can run.
const (
	DelegateRobot   = "robot"
	DelegatePrinter = "printer"
)

// ReceiverConfig defines how incoming calls are handled.
type ReceiverConfig struct {
	Delegate  string `json:"delegate"`
	QueueSize int    `json:"queue_size"`
	// Subscribe and Publish override the topic suffixes, msg4ev3 and
	// msg4pc by default.
	Subscribe string `json:"subscribe"`
	Publish   string `json:"publish"`
}

func (c *ReceiverConfig) SetDefaults() {
	if c.Delegate == "" {
		c.Delegate = DelegateRobot
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
}

func (c ReceiverConfig) Validate() error {
	if c.Delegate != DelegateRobot && c.Delegate != DelegatePrinter {
		return fmt.Errorf("unknown delegate %s", c.Delegate)
	}
	return nil
}
