package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/remote"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// Monitor is the PC-side delegate for state reports. Each report is
// published on the bus, kept as the latest state and, when out is set,
// printed.
type Monitor struct {
	method string
	bus    eventbus.Publisher
	out    io.Writer

	mu     sync.Mutex
	latest *events.RobotState
}

func NewMonitor(cfg Config, bus eventbus.Publisher, out io.Writer) *Monitor {
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Monitor{method: cfg.MethodName(), bus: bus, out: out}
}

func (m *Monitor) Methods() map[string]remote.Handler {
	return map[string]remote.Handler{m.method: m.state}
}

func (m *Monitor) state(_ context.Context, args remote.Args) error {
	if err := args.Expect(1); err != nil {
		return err
	}
	var st events.RobotState
	if err := args.Decode(0, &st); err != nil {
		return err
	}
	m.mu.Lock()
	m.latest = &st
	m.mu.Unlock()
	m.bus.Publish(events.StateEvent{State: st})
	if m.out != nil {
		fmt.Fprintf(m.out, "left %d° @%d  right %d° @%d%s\n",
			st.LeftPosition, st.LeftSpeed, st.RightPosition, st.RightSpeed, sensors(st))
	}
	return nil
}

// Latest returns the last reported state.
func (m *Monitor) Latest() (events.RobotState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return events.RobotState{}, false
	}
	return *m.latest, true
}

func sensors(st events.RobotState) string {
	var s string
	if st.Reflected != nil {
		s += fmt.Sprintf("  light %d", *st.Reflected)
	}
	if st.Proximity != nil {
		s += fmt.Sprintf("  ir %d", *st.Proximity)
	}
	if st.Pressed != nil {
		s += fmt.Sprintf("  touch %t", *st.Pressed)
	}
	return s
}
