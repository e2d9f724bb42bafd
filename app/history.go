package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ev3remote/config"
	"github.com/kilianp07/ev3remote/core/calllog"
)

// ErrNoCallLog is returned by History when no call log is configured.
var ErrNoCallLog = errors.New("call_log is not configured")

// History reads the configured call log.
func History(ctx context.Context, cfg *config.Config, q calllog.Query) ([]calllog.Record, error) {
	if cfg.CallLog.Type == "" {
		return nil, ErrNoCallLog
	}
	store, err := calllog.NewStore(cfg.CallLog)
	if err != nil {
		return nil, fmt.Errorf("call log: %w", err)
	}
	defer func() { _ = store.Close() }()
	return store.Query(ctx, q)
}
