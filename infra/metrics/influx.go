package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/ev3remote/core/events"
	coremetrics "github.com/kilianp07/ev3remote/core/metrics"
	"github.com/kilianp07/ev3remote/infra/logger"
)

// InfluxSink writes calls, drive commands and state snapshots to InfluxDB
// using the official client. Points are tagged with the robot name.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	robot    string
	log      logger.Logger
}

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	Robot  string `json:"robot"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		robot:    cfg.Robot,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) point(measurement string, t time.Time) *write.Point {
	p := write.NewPointWithMeasurement(measurement)
	if s.robot != "" {
		p = p.AddTag("robot", s.robot)
	}
	return p.SetTime(t)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCall writes one remote_call point.
func (s *InfluxSink) RecordCall(ev events.CallEvent) error {
	p := s.point("remote_call", ev.Time).
		AddTag("method", ev.Method).
		AddTag("outcome", ev.Outcome).
		AddField("duration_ms", float64(ev.Duration.Microseconds())/1000)
	if ev.Err != nil {
		p = p.AddField("error", ev.Err.Error())
	}
	return s.write(p)
}

// RecordDrive writes one drive_command point.
func (s *InfluxSink) RecordDrive(ev events.DriveEvent) error {
	p := s.point("drive_command", ev.Time).
		AddTag("action", ev.Action)
	if ev.Routine != "" {
		p = p.AddTag("routine", ev.Routine)
	}
	p = p.AddField("left_speed", ev.LeftSpeed).
		AddField("right_speed", ev.RightSpeed)
	if ev.Err != nil {
		p = p.AddField("error", ev.Err.Error())
	}
	return s.write(p)
}

// RecordState writes one robot_state point. Sensors that could not be read
// are left out.
func (s *InfluxSink) RecordState(st events.RobotState) error {
	p := s.point("robot_state", st.Time).
		AddField("left_position", st.LeftPosition).
		AddField("right_position", st.RightPosition).
		AddField("left_speed", st.LeftSpeed).
		AddField("right_speed", st.RightSpeed)
	if st.Reflected != nil {
		p = p.AddField("reflected", *st.Reflected)
	}
	if st.Proximity != nil {
		p = p.AddField("proximity", *st.Proximity)
	}
	if st.Pressed != nil {
		p = p.AddField("pressed", *st.Pressed)
	}
	return s.write(p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
