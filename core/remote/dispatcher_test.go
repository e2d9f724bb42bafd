package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

type recordingDelegate struct {
	mu          sync.Mutex
	calls       []string
	interrupted int
}

func (r *recordingDelegate) record(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

func (r *recordingDelegate) Methods() map[string]Handler {
	return map[string]Handler{
		"move": func(_ context.Context, a Args) error {
			if err := a.Expect(2); err != nil {
				return err
			}
			if _, err := a.Int(0); err != nil {
				return err
			}
			r.record("move")
			return nil
		},
		"end": func(context.Context, Args) error {
			r.record("end")
			return nil
		},
		"wait": func(ctx context.Context, _ Args) error {
			r.record("wait")
			<-ctx.Done()
			r.mu.Lock()
			r.interrupted++
			r.mu.Unlock()
			return ctx.Err()
		},
		"broken": func(context.Context, Args) error { return errors.New("motor on fire") },
		"panics": func(context.Context, Args) error { panic("boom") },
	}
}

func (r *recordingDelegate) Interrupts(method string) bool { return method == "end" }

func (r *recordingDelegate) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...), r.interrupted
}

func mustMessage(t *testing.T, method string, args ...any) Message {
	t.Helper()
	m, err := NewMessage(method, args...)
	require.NoError(t, err)
	return m
}

func TestCallOutcomes(t *testing.T) {
	bus := eventbus.NewWithBuffer(16)
	sub := bus.Subscribe()
	d := NewDispatcher(&recordingDelegate{}, WithDispatcherPublisher(bus))
	ctx := context.Background()

	require.NoError(t, d.Call(ctx, mustMessage(t, "move", 10, 20)))
	assert.ErrorIs(t, d.Call(ctx, mustMessage(t, "move", 10)), ErrBadArgs)
	assert.ErrorIs(t, d.Call(ctx, mustMessage(t, "fly")), ErrUnknownMethod)
	assert.EqualError(t, d.Call(ctx, mustMessage(t, "broken")), "motor on fire")
	assert.ErrorContains(t, d.Call(ctx, mustMessage(t, "panics")), "panicked")
	bus.Close()

	var outcomes []string
	for ev := range sub {
		outcomes = append(outcomes, ev.(events.CallEvent).Outcome)
	}
	assert.Equal(t, []string{
		events.OutcomeOK,
		events.OutcomeBadArgs,
		events.OutcomeUnknown,
		events.OutcomeFailed,
		events.OutcomeFailed,
	}, outcomes)
}

func TestMethodsSorted(t *testing.T) {
	d := NewDispatcher(&recordingDelegate{})
	assert.Equal(t, []string{"broken", "end", "move", "panics", "wait"}, d.Methods())
}

func TestRunExecutesInOrder(t *testing.T) {
	del := &recordingDelegate{}
	d := NewDispatcher(del)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	require.NoError(t, d.Deliver(mustMessage(t, "move", 1, 1)))
	require.NoError(t, d.Deliver(mustMessage(t, "fly")))
	require.NoError(t, d.Deliver(mustMessage(t, "end")))

	require.Eventually(t, func() bool {
		calls, _ := del.snapshot()
		return len(calls) == 2
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	calls, _ := del.snapshot()
	assert.Equal(t, []string{"move", "end"}, calls)
}

func TestDeliverQueueFull(t *testing.T) {
	bus := eventbus.NewWithBuffer(4)
	sub := bus.Subscribe()
	d := NewDispatcher(&recordingDelegate{}, WithQueueSize(1), WithDispatcherPublisher(bus))

	require.NoError(t, d.Deliver(mustMessage(t, "move", 1, 1)))
	assert.ErrorIs(t, d.Deliver(mustMessage(t, "move", 2, 2)), ErrQueueFull)

	ev := (<-sub).(events.CallEvent)
	assert.Equal(t, events.OutcomeDropped, ev.Outcome)
}

func TestInterruptCancelsRunningAndQueuedCalls(t *testing.T) {
	del := &recordingDelegate{}
	bus := eventbus.NewWithBuffer(16)
	sub := bus.Subscribe()
	d := NewDispatcher(del, WithDispatcherPublisher(bus))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, d.Deliver(mustMessage(t, "wait")))
	require.Eventually(t, func() bool {
		calls, _ := del.snapshot()
		return len(calls) == 1
	}, time.Second, time.Millisecond)

	// The worker is busy with the first wait; the second one queues behind it.
	require.NoError(t, d.Deliver(mustMessage(t, "wait")))
	require.NoError(t, d.Deliver(mustMessage(t, "end")))

	require.Eventually(t, func() bool {
		calls, _ := del.snapshot()
		return len(calls) == 2
	}, time.Second, time.Millisecond)
	calls, interrupted := del.snapshot()
	// The queued wait never starts.
	assert.Equal(t, []string{"wait", "end"}, calls)
	assert.Equal(t, 1, interrupted)

	var outcomes []string
	for len(outcomes) < 3 {
		outcomes = append(outcomes, (<-sub).(events.CallEvent).Outcome)
	}
	assert.Equal(t, []string{events.OutcomeInterrupted, events.OutcomeInterrupted, events.OutcomeOK}, outcomes)
}

func TestInterruptingCallIsNeverDropped(t *testing.T) {
	del := &recordingDelegate{}
	bus := eventbus.NewWithBuffer(8)
	sub := bus.Subscribe()
	d := NewDispatcher(del, WithQueueSize(1), WithDispatcherPublisher(bus))

	require.NoError(t, d.Deliver(mustMessage(t, "move", 50, 50)))
	require.NoError(t, d.Deliver(mustMessage(t, "end")))

	ev := (<-sub).(events.CallEvent)
	assert.Equal(t, "move", ev.Method)
	assert.Equal(t, events.OutcomeInterrupted, ev.Outcome)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()
	require.Eventually(t, func() bool {
		calls, _ := del.snapshot()
		return len(calls) == 1
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	calls, _ := del.snapshot()
	assert.Equal(t, []string{"end"}, calls)
	ev = (<-sub).(events.CallEvent)
	assert.Equal(t, events.OutcomeOK, ev.Outcome)
}

func TestRunDoesNotStartCallsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 50; i++ {
		del := &recordingDelegate{}
		d := NewDispatcher(del)
		require.NoError(t, d.Deliver(mustMessage(t, "move", 70, 70)))
		d.Run(ctx)
		calls, _ := del.snapshot()
		require.Empty(t, calls, "run %d", i)
	}
}
