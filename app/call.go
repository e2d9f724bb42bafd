package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/kilianp07/ev3remote/config"
	"github.com/kilianp07/ev3remote/core/delegate"
	"github.com/kilianp07/ev3remote/core/remote"
	"github.com/kilianp07/ev3remote/infra/logger"
	"github.com/kilianp07/ev3remote/infra/mqtt"
)

// ParseArgs converts command line words to call arguments. Words that are
// valid JSON (numbers, booleans, quoted strings) keep their type, anything
// else is sent as a string.
func ParseArgs(words []string) []any {
	args := make([]any, len(words))
	for i, w := range words {
		var v any
		if err := json.Unmarshal([]byte(w), &v); err == nil {
			args[i] = v
		} else {
			args[i] = w
		}
	}
	return args
}

// Send publishes one call to the robot and disconnects.
func Send(cfg *config.Config, method string, args ...any) error {
	client := mqtt.NewClient(cfg.MQTT, nil)
	if err := client.ConnectToPC(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()
	return client.SendMessage(method, args...)
}

// Local runs one call on this machine's robot without a broker, then stops
// the motors. Cancelling ctx interrupts long-running routines.
func Local(ctx context.Context, cfg *config.Config, out io.Writer, method string, args ...any) (err error) {
	d, err := NewDrive(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, d.Stop()) }()

	msg, err := remote.NewMessage(method, args...)
	if err != nil {
		return err
	}
	disp := remote.NewDispatcher(delegate.NewRobot(d, out), remote.WithDispatcherLogger(logger.New("dispatcher")))
	return disp.Call(ctx, msg)
}
