package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/config"
	coremon "github.com/kilianp07/ev3remote/core/monitoring"
)

type memTransport struct {
	events []*sentry.Event
}

func (m *memTransport) Configure(sentry.ClientOptions)        {}
func (m *memTransport) SendEvent(e *sentry.Event)             { m.events = append(m.events, e) }
func (m *memTransport) Flush(time.Duration) bool              { return true }
func (m *memTransport) FlushWithContext(context.Context) bool { return true }
func (m *memTransport) Close()                                {}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	mon, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.Equal(t, coremon.NopMonitor{}, mon)
}

func TestSentryMonitorCapturesWithTags(t *testing.T) {
	tr := &memTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.invalid/1", Transport: tr})
	require.NoError(t, err)
	mon := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	mon.CaptureException(errors.New("motor stalled"), map[string]string{"method": "move"})
	mon.CaptureException(nil, nil)
	mon.Flush(time.Second)

	require.Len(t, tr.events, 1)
	assert.Equal(t, "move", tr.events[0].Tags["method"])
	require.NotEmpty(t, tr.events[0].Exception)
	assert.Equal(t, "motor stalled", tr.events[0].Exception[0].Value)
}

func TestSentryMonitorRecoverRepanics(t *testing.T) {
	tr := &memTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.invalid/1", Transport: tr})
	require.NoError(t, err)
	mon := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	assert.PanicsWithValue(t, "boom", func() {
		defer coremon.Recover()
		panic("boom")
	})
	assert.Len(t, tr.events, 1)
}
