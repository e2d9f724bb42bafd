package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/core/events"
	coremetrics "github.com/kilianp07/ev3remote/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordCall(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket", Robot: "lego07"})
	now := time.Now()

	require.NoError(t, sink.RecordCall(events.CallEvent{
		Method: "move", Outcome: events.OutcomeFailed, Err: errors.New("stalled"),
		Duration: 1500 * time.Microsecond, Time: now,
	}))
	exp := write.NewPointWithMeasurement("remote_call").
		AddTag("robot", "lego07").
		AddTag("method", "move").
		AddTag("outcome", "failed").
		AddField("duration_ms", 1.5).
		AddField("error", "stalled").
		SetTime(now)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, line(exp), rec.bodies[0])
}

func TestInfluxSinkRecordDrive(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	now := time.Now()

	require.NoError(t, sink.RecordDrive(events.DriveEvent{
		Action: events.ActionRoutineStart, Routine: "go_straight_until_black", Time: now,
	}))
	exp := write.NewPointWithMeasurement("drive_command").
		AddTag("action", events.ActionRoutineStart).
		AddTag("routine", "go_straight_until_black").
		AddField("left_speed", 0).
		AddField("right_speed", 0).
		SetTime(now)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, line(exp), rec.bodies[0])
}

func TestInfluxSinkRecordStateSkipsMissingSensors(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	now := time.Now()
	reflected := 12

	require.NoError(t, sink.RecordState(events.RobotState{
		LeftPosition: 10, RightPosition: 11, LeftSpeed: 50, RightSpeed: 50,
		Reflected: &reflected, Time: now,
	}))
	exp := write.NewPointWithMeasurement("robot_state").
		AddField("left_position", 10).
		AddField("right_position", 11).
		AddField("left_speed", 50).
		AddField("right_speed", 50).
		AddField("reflected", 12).
		SetTime(now)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, line(exp), rec.bodies[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called)
}
