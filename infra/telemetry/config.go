package telemetry

// Config holds configuration for the telemetry reporter.
type Config struct {
	Enabled         bool   `json:"enabled"`
	IntervalSeconds int    `json:"interval_seconds"`
	Method          string `json:"method"`
}

// Interval returns the reporting period in seconds.
func (c Config) Interval() int {
	if c.IntervalSeconds <= 0 {
		return 5
	}
	return c.IntervalSeconds
}

// MethodName is the remote call the state is sent as.
func (c Config) MethodName() string {
	if c.Method == "" {
		return DefaultMethod
	}
	return c.Method
}
