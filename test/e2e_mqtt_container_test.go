package test

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/app"
	"github.com/kilianp07/ev3remote/config"
	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/test/util"
)

func startBroker(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	broker, cleanup, err := util.StartMosquitto(context.Background())
	if err != nil {
		t.Skipf("mosquitto not available: %v", err)
	}
	t.Cleanup(cleanup)
	return broker
}

func brokerConfig(t *testing.T, broker string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.MQTT.Broker = broker
	cfg.MQTT.LegoNumber = 42
	cfg.Robot.Platform = factory.ModuleConfig{Type: "sim", Conf: map[string]any{"line_at_inches": 1000}}
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.IntervalSeconds = 1
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func runService(t *testing.T, svc *app.Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		assert.NoError(t, svc.Close())
	})
}

func TestRemoteControlOverBroker(t *testing.T) {
	broker := startBroker(t)
	cfg := brokerConfig(t, broker)

	out := &util.Buffer{}
	robot, err := app.NewReceiver(cfg, out)
	require.NoError(t, err)
	runService(t, robot)

	// The first sends may race the receiver's subscription.
	require.Eventually(t, func() bool {
		if err := app.Send(cfg, "move", 30, 40); err != nil {
			return false
		}
		st, err := robot.Drive.State()
		return err == nil && st.LeftSpeed == 30 && st.RightSpeed == 40
	}, 10*time.Second, 200*time.Millisecond)
	assert.True(t, strings.HasPrefix(out.String(), "30 40\n"))

	require.NoError(t, app.Send(cfg, "say_it", "hello robot"))
	require.NoError(t, app.Send(cfg, "end"))
	require.Eventually(t, func() bool {
		st, err := robot.Drive.State()
		return err == nil && st.LeftSpeed == 0 && strings.Contains(out.String(), "STOP!")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, out.String(), "Message received! hello robot\n")
}

func TestEndInterruptsRoutineOverBroker(t *testing.T) {
	broker := startBroker(t)
	cfg := brokerConfig(t, broker)
	cfg.Telemetry.Enabled = false

	robot, err := app.NewReceiver(cfg, &util.Buffer{})
	require.NoError(t, err)
	runService(t, robot)

	// The line is too far away for the routine to finish on its own.
	require.Eventually(t, func() bool {
		if err := app.Send(cfg, "go_straight_until_black", 50); err != nil {
			return false
		}
		st, err := robot.Drive.State()
		return err == nil && st.LeftSpeed == 50
	}, 10*time.Second, 200*time.Millisecond)

	require.NoError(t, app.Send(cfg, "end"))
	require.Eventually(t, func() bool {
		st, err := robot.Drive.State()
		return err == nil && st.LeftSpeed == 0 && st.RightSpeed == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestMonitorReceivesRobotState(t *testing.T) {
	broker := startBroker(t)
	cfg := brokerConfig(t, broker)

	robot, err := app.NewReceiver(cfg, &util.Buffer{})
	require.NoError(t, err)
	runService(t, robot)

	out := &util.Buffer{}
	monitor, err := app.NewMonitor(cfg, out)
	require.NoError(t, err)
	runService(t, monitor)

	require.Eventually(t, func() bool {
		_, ok := monitor.Latest()
		return ok
	}, 10*time.Second, 100*time.Millisecond)
	assert.Contains(t, out.String(), "left ")
}
