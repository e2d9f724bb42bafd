package plugins

import (
	"github.com/benbjohnson/clock"

	"github.com/kilianp07/ev3remote/infra/ev3dev"
	"github.com/kilianp07/ev3remote/infra/logger"
	"github.com/kilianp07/ev3remote/infra/sim"
)

func init() {
	_ = RegisterPlatform("ev3dev", ev3dev.Factory(logger.New("ev3dev")))
	_ = RegisterPlatform("sim", sim.Factory(clock.New(), logger.New("sim")))
}
