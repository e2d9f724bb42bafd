package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/logger"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// Handler executes one remote call. Long-running handlers must return when
// ctx is cancelled.
type Handler func(ctx context.Context, args Args) error

// Delegate exposes the methods that may be called remotely, keyed by the
// name used on the wire.
type Delegate interface {
	Methods() map[string]Handler
}

// Interrupter is implemented by delegates with long-running calls. A call
// for which Interrupts reports true cancels the context of the call being
// executed and of every call queued before it.
type Interrupter interface {
	Interrupts(method string) bool
}

type queued struct {
	msg Message
	gen uint64
}

// Dispatcher routes messages to a delegate. Deliver queues calls and Run
// executes them one at a time, so the delegate never runs concurrently
// with itself.
type Dispatcher struct {
	methods     map[string]Handler
	interrupter Interrupter
	queue       chan queued
	log         logger.Logger
	bus         eventbus.Publisher

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize bounds the number of pending calls.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan queued, n)
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l logger.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithDispatcherPublisher sets where call events are published.
func WithDispatcherPublisher(p eventbus.Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.bus = p }
}

// NewDispatcher creates a dispatcher for the delegate.
func NewDispatcher(delegate Delegate, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		methods: delegate.Methods(),
		queue:   make(chan queued, 16),
		log:     logger.Nop{},
		bus:     eventbus.Nop{},
	}
	if in, ok := delegate.(Interrupter); ok {
		d.interrupter = in
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Methods lists the callable method names in order.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for n := range d.methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Deliver queues msg for Run without blocking. It satisfies the messaging
// client's handler interface. An interrupting call empties the queue first,
// so it is never dropped.
func (d *Dispatcher) Deliver(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interrupter != nil && d.interrupter.Interrupts(msg.Type) {
		d.gen++
		if d.cancel != nil {
			d.cancel()
		}
		d.purge()
	}

	select {
	case d.queue <- queued{msg: msg, gen: d.gen}:
		return nil
	default:
		d.log.Warnf("dropping %s: %v", msg.Type, ErrQueueFull)
		d.bus.Publish(events.CallEvent{Method: msg.Type, Outcome: events.OutcomeDropped, Err: ErrQueueFull, Time: time.Now()})
		return ErrQueueFull
	}
}

// purge discards every queued call. Callers hold d.mu.
func (d *Dispatcher) purge() {
	for {
		select {
		case q := <-d.queue:
			d.skip(q.msg)
		default:
			return
		}
	}
}

// skip records a call that was interrupted before it started.
func (d *Dispatcher) skip(msg Message) {
	d.log.Infof("%s interrupted before running", msg.Type)
	d.bus.Publish(events.CallEvent{Method: msg.Type, Outcome: events.OutcomeInterrupted, Err: context.Canceled, Time: time.Now()})
}

// Run executes queued calls until ctx is cancelled. Call errors are logged
// and do not stop the loop. Calls still queued when ctx is done are not run.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case q := <-d.queue:
			if ctx.Err() != nil {
				return
			}
			d.run(ctx, q)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, q queued) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	if q.gen < d.gen {
		d.mu.Unlock()
		d.skip(q.msg)
		return
	}
	d.cancel = cancel
	d.mu.Unlock()

	err := d.Call(callCtx, q.msg)

	d.mu.Lock()
	d.cancel = nil
	d.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		d.log.Infof("%s interrupted", q.msg.Type)
	default:
		d.log.Errorf("%s: %v", q.msg.Type, err)
	}
}

// Call executes msg synchronously.
func (d *Dispatcher) Call(ctx context.Context, msg Message) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", msg.Type, r)
		}
		d.bus.Publish(events.CallEvent{
			Method:   msg.Type,
			Outcome:  outcome(err),
			Err:      err,
			Duration: time.Since(start),
			Time:     start,
		})
	}()

	h, ok := d.methods[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, msg.Type)
	}
	d.log.Debugw("remote call", map[string]any{"method": msg.Type, "args": len(msg.Payload)})
	return h(ctx, msg.Args())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return events.OutcomeOK
	case errors.Is(err, ErrUnknownMethod):
		return events.OutcomeUnknown
	case errors.Is(err, ErrBadArgs):
		return events.OutcomeBadArgs
	case errors.Is(err, context.Canceled):
		return events.OutcomeInterrupted
	default:
		return events.OutcomeFailed
	}
}
