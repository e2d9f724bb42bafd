package metrics

import (
	"context"

	"github.com/kilianp07/ev3remote/core/events"
	coremetrics "github.com/kilianp07/ev3remote/core/metrics"
	"github.com/kilianp07/ev3remote/infra/logger"
	"github.com/kilianp07/ev3remote/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once it has.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics_collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.CallEvent:
		return sink.RecordCall(e)
	case events.DriveEvent:
		if r, ok := sink.(coremetrics.DriveRecorder); ok {
			return r.RecordDrive(e)
		}
	case events.StateEvent:
		if r, ok := sink.(coremetrics.StateRecorder); ok {
			return r.RecordState(e.State)
		}
	}
	return nil
}
