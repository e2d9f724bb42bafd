package calllog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ev3remote/core/calllog"
	"github.com/kilianp07/ev3remote/core/events"
	"github.com/kilianp07/ev3remote/core/factory"
)

func sample(now time.Time) []calllog.Record {
	return []calllog.Record{
		{Time: now, Method: "move", Outcome: events.OutcomeOK, DurationMS: 0.5},
		{Time: now.Add(time.Second), Method: "go_straight_until_black", Outcome: events.OutcomeInterrupted, Error: "context canceled", DurationMS: 900},
		{Time: now.Add(2 * time.Second), Method: "end", Outcome: events.OutcomeOK},
	}
}

func exercise(t *testing.T, store calllog.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	for _, r := range sample(now) {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, calllog.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"move", "go_straight_until_black", "end"}, []string{all[0].Method, all[1].Method, all[2].Method})
	assert.True(t, all[1].Time.Equal(now.Add(time.Second)))
	assert.Equal(t, "context canceled", all[1].Error)
	assert.Equal(t, 900.0, all[1].DurationMS)

	ok, err := store.Query(ctx, calllog.Query{Outcome: events.OutcomeOK})
	require.NoError(t, err)
	assert.Len(t, ok, 2)

	late, err := store.Query(ctx, calllog.Query{Start: now.Add(500 * time.Millisecond), Method: "end"})
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, "end", late[0].Method)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(JSONLConfig{Path: filepath.Join(t.TempDir(), "log", "calls.jsonl")})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.jsonl")
	store, err := NewRotatingJSONLStore(JSONLConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := calllog.Record{Time: time.Now(), Method: "say_it", Outcome: events.OutcomeOK, Error: strings.Repeat("x", 4096)}
	for i := 0; i < 300; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	backups, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "calls-*.jsonl"))
	assert.NotEmpty(t, backups)

	all, err := store.Query(context.Background(), calllog.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 300)
}

func TestRotatingJSONLStoreEmpty(t *testing.T) {
	store, err := NewRotatingJSONLStore(JSONLConfig{Path: filepath.Join(t.TempDir(), "calls.jsonl")})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	recs, err := store.Query(context.Background(), calllog.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "calls.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exercise(t, store)
}

func TestRegisteredStores(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []factory.ModuleConfig{
		{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "calls.jsonl"), "max_size_mb": "5"}},
		{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "calls.db")}},
	} {
		store, err := calllog.NewStore(cfg)
		require.NoError(t, err, cfg.Type)
		assert.NoError(t, store.Close())
	}
}
