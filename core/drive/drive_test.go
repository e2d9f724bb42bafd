package drive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/robot"
	"github.com/kilianp07/ev3remote/core/robot/robottest"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

func newTestDrive(t *testing.T, p *robottest.Platform, opts ...Option) *DriveSystem {
	t.Helper()
	r, err := robot.Assemble(p, robot.Ports{})
	require.NoError(t, err)
	return New(r, Config{PollIntervalMS: 1, ToneDurationMS: 1}, opts...)
}

// advance drives the mock clock until done yields, failing after limit steps.
func advance(t *testing.T, mock *clock.Mock, step time.Duration, done <-chan error) error {
	t.Helper()
	for i := 0; i < 5000; i++ {
		select {
		case err := <-done:
			return err
		default:
			mock.Add(step)
		}
	}
	t.Fatalf("routine did not finish")
	return nil
}

func TestGoPassesSpeedsThrough(t *testing.T) {
	p := robottest.NewPlatform()
	d := newTestDrive(t, p)

	require.NoError(t, d.Go(50, -30))
	assert.Equal(t, 50, p.Motors["B"].LastSpeed())
	assert.Equal(t, -30, p.Motors["C"].LastSpeed())

	// Out of range values are not clamped.
	require.NoError(t, d.Go(150, 150))
	assert.Equal(t, 150, p.Motors["B"].LastSpeed())
}

func TestGoReportsMotorFailure(t *testing.T) {
	p := robottest.NewPlatform()
	p.Motors["C"].OnErr = errors.New("stalled")
	d := newTestDrive(t, p)

	err := d.Go(20, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "right motor")
}

func TestStopBrakesBothMotorsEvenOnError(t *testing.T) {
	p := robottest.NewPlatform()
	p.Motors["B"].OffErr = errors.New("left broken")
	p.Motors["C"].OffErr = errors.New("right broken")
	d := newTestDrive(t, p)

	err := d.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left broken")
	assert.Contains(t, err.Error(), "right broken")
	assert.Equal(t, 1, p.Motors["B"].StopCount())
	assert.Equal(t, 1, p.Motors["C"].StopCount())
}

func TestGoStraightForSeconds(t *testing.T) {
	p := robottest.NewPlatform()
	mock := clock.NewMock()
	d := newTestDrive(t, p, WithClock(mock))
	start := mock.Now()

	done := make(chan error, 1)
	go func() { done <- d.GoStraightForSeconds(context.Background(), 2, 40) }()
	require.NoError(t, advance(t, mock, 10*time.Millisecond, done))

	assert.GreaterOrEqual(t, mock.Now().Sub(start), 2*time.Second)
	assert.Equal(t, 40, p.Motors["B"].LastSpeed())
	assert.Equal(t, 40, p.Motors["C"].LastSpeed())
	assert.Equal(t, 1, p.Motors["B"].StopCount())
}

func TestGoStraightForInchesUsingTime(t *testing.T) {
	p := robottest.NewPlatform()
	mock := clock.NewMock()
	d := newTestDrive(t, p, WithClock(mock))
	start := mock.Now()

	// 10 inches at speed 50 is 2 seconds with the default constant.
	done := make(chan error, 1)
	go func() { done <- d.GoStraightForInchesUsingTime(context.Background(), 10, 50) }()
	require.NoError(t, advance(t, mock, 10*time.Millisecond, done))

	elapsed := mock.Now().Sub(start)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestGoStraightForInchesUsingTimeZeroSpeed(t *testing.T) {
	d := newTestDrive(t, robottest.NewPlatform())
	err := d.GoStraightForInchesUsingTime(context.Background(), 10, 0)
	assert.ErrorIs(t, err, ErrZeroSpeed)
}

func TestGoStraightForInchesUsingSensor(t *testing.T) {
	p := robottest.NewPlatform()
	p.Motors["B"].Position = 999
	p.Motors["B"].Step = 10
	d := newTestDrive(t, p)

	// One full wheel turn is 360 degrees.
	err := d.GoStraightForInchesUsingSensor(context.Background(), d.cfg.WheelCircumference, 30)
	require.NoError(t, err)

	pos := p.Motors["B"].Position
	assert.GreaterOrEqual(t, pos, 360)
	assert.Less(t, pos, 400)
	assert.Equal(t, 1, p.Motors["B"].StopCount())
}

func TestGoStraightForInchesUsingSensorBackwards(t *testing.T) {
	p := robottest.NewPlatform()
	p.Motors["B"].Step = -20
	d := newTestDrive(t, p)

	require.NoError(t, d.GoStraightForInchesUsingSensor(context.Background(), d.cfg.WheelCircumference/2, -30))
	pos := p.Motors["B"].Position
	assert.LessOrEqual(t, pos, -180)
	assert.Equal(t, -30, p.Motors["C"].LastSpeed())
}

func TestGoStraightUntilBlack(t *testing.T) {
	p := robottest.NewPlatform()
	p.Color.Values = []int{60, 40, 11, 10, 5}
	d := newTestDrive(t, p)

	require.NoError(t, d.GoStraightUntilBlack(context.Background(), 25))
	assert.Equal(t, 4, p.Color.Reads())
	assert.Equal(t, 25, p.Motors["B"].LastSpeed())
	assert.Equal(t, 1, p.Motors["C"].StopCount())
}

func TestGoStraightUntilBlackSensorError(t *testing.T) {
	p := robottest.NewPlatform()
	p.Color.Err = errors.New("unplugged mid-run")
	d := newTestDrive(t, p)

	err := d.GoStraightUntilBlack(context.Background(), 25)
	require.Error(t, err)
	assert.Equal(t, 1, p.Motors["B"].StopCount())
}

func TestGoStraightUntilBlackMissingSensor(t *testing.T) {
	p := robottest.NewPlatform()
	p.Color = nil
	d := newTestDrive(t, p)

	err := d.GoStraightUntilBlack(context.Background(), 25)
	require.Error(t, err)
	assert.Empty(t, p.Motors["B"].Speeds)
}

func TestGoStraightUntilBlackCancelled(t *testing.T) {
	p := robottest.NewPlatform()
	d := newTestDrive(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.GoStraightUntilBlack(ctx, 25)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, p.Motors["B"].StopCount())
	assert.Equal(t, 1, p.Motors["C"].StopCount())
}

func TestGoForwardUntilDistanceIsLessThan(t *testing.T) {
	p := robottest.NewPlatform()
	// 50 units is about 13.8in, 30 units about 8.3in.
	p.Proximity.Values = []int{100, 50, 30, 10}
	d := newTestDrive(t, p)

	require.NoError(t, d.GoForwardUntilDistanceIsLessThan(context.Background(), 10, 60))
	assert.Equal(t, 3, p.Proximity.Reads())
	assert.Equal(t, 60, p.Motors["C"].LastSpeed())
}

func TestTonesUntilTouchSensorIsPressed(t *testing.T) {
	p := robottest.NewPlatform()
	p.Touch.PressedAt = 5
	d := newTestDrive(t, p)

	require.NoError(t, d.TonesUntilTouchSensorIsPressed(context.Background()))
	freqs := p.Sound.Freqs()
	require.Len(t, freqs, 4)
	for i := 1; i < len(freqs); i++ {
		assert.Greater(t, freqs[i], freqs[i-1])
	}
	assert.Equal(t, 220.0, freqs[0])
}

func TestTonesWrapAround(t *testing.T) {
	p := robottest.NewPlatform()
	p.Touch.PressedAt = 4
	r, err := robot.Assemble(p, robot.Ports{})
	require.NoError(t, err)
	d := New(r, Config{PollIntervalMS: 1, ToneDurationMS: 1, ToneMinHz: 400, ToneMaxHz: 500, ToneSteps: 2})

	require.NoError(t, d.TonesUntilTouchSensorIsPressed(context.Background()))
	assert.Equal(t, []float64{400, 500, 400}, p.Sound.Freqs())
}

func TestDriveEventsPublished(t *testing.T) {
	p := robottest.NewPlatform()
	p.Color.Values = []int{5}
	bus := eventbus.NewWithBuffer(16)
	sub := bus.Subscribe()
	d := newTestDrive(t, p, WithPublisher(bus))

	require.NoError(t, d.GoStraightUntilBlack(context.Background(), 10))
	bus.Close()

	var actions []string
	for ev := range sub {
		de, ok := ev.(events.DriveEvent)
		require.True(t, ok)
		actions = append(actions, de.Action)
	}
	assert.Equal(t, []string{
		events.ActionRoutineStart,
		events.ActionGo,
		events.ActionStop,
		events.ActionRoutineFinish,
	}, actions)
}

func TestState(t *testing.T) {
	p := robottest.NewPlatform()
	p.Motors["B"].Position = 12
	p.Motors["C"].Position = 34
	p.Proximity = nil
	d := newTestDrive(t, p)
	require.NoError(t, d.Go(10, 20))

	st, err := d.State()
	require.NoError(t, err)
	assert.Equal(t, 12, st.LeftPosition)
	assert.Equal(t, 34, st.RightPosition)
	assert.Equal(t, 10, st.LeftSpeed)
	assert.Equal(t, 20, st.RightSpeed)
	require.NotNil(t, st.Reflected)
	assert.Equal(t, 50, *st.Reflected)
	assert.Nil(t, st.Proximity)
	require.NotNil(t, st.Pressed)
	assert.False(t, *st.Pressed)
}

func TestToneLadder(t *testing.T) {
	assert.Equal(t, []float64{100}, toneLadder(100, 200, 1))
	assert.Equal(t, []float64{100, 150, 200}, toneLadder(100, 200, 3))
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, 10, c.BlackThreshold)
	assert.Equal(t, 10.0, c.SecondsPerInchAt100)
	assert.Equal(t, 10*time.Millisecond, c.pollInterval())
	assert.InDelta(t, 4.084, c.WheelCircumference, 0.001)

	bad := Config{BlackThreshold: 120}
	bad.SetDefaults()
	assert.Error(t, bad.Validate())
}

func TestSoundsAreReaped(t *testing.T) {
	p := robottest.NewPlatform()
	d := newTestDrive(t, p)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Beep())
	}
	require.NoError(t, d.Tone(440, 10*time.Millisecond))
	require.Eventually(t, func() bool { return p.Sound.Waits() == 6 }, time.Second, time.Millisecond)
}

func TestTonesCancelledReapsPlayback(t *testing.T) {
	p := robottest.NewPlatform()
	r, err := robot.Assemble(p, robot.Ports{})
	require.NoError(t, err)
	mock := clock.NewMock()
	d := New(r, Config{PollIntervalMS: 1, ToneDurationMS: 1000}, WithClock(mock))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.TonesUntilTouchSensorIsPressed(ctx) }()
	require.Eventually(t, func() bool { return len(p.Sound.Freqs()) == 1 }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	require.Eventually(t, func() bool { return p.Sound.Waits() == 1 }, time.Second, time.Millisecond)
}

func TestArm(t *testing.T) {
	p := robottest.NewPlatform()
	d := newTestDrive(t, p)

	require.NoError(t, d.StopArm())
	assert.Zero(t, p.Motors["A"].StopCount())

	require.NoError(t, d.MoveArm(-35))
	assert.Equal(t, -35, p.Motors["A"].LastSpeed())
	require.NoError(t, d.StopArm())
	assert.Equal(t, 1, p.Motors["A"].StopCount())

	delete(p.Motors, "A")
	d = newTestDrive(t, p)
	assert.ErrorIs(t, d.MoveArm(10), robottest.ErrUnplugged)
}
