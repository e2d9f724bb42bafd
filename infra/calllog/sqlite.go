package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/ev3remote/core/calllog"
)

type SQLiteConfig struct {
	Path string `json:"path"`
}

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "calls.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS calls (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        method TEXT,
        outcome TEXT,
        error TEXT,
        duration_ms REAL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec calllog.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (ts, method, outcome, error, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		rec.Time.UnixNano(), rec.Method, rec.Outcome, rec.Error, rec.DurationMS)
	return err
}

func (s *SQLiteStore) Query(ctx context.Context, q calllog.Query) ([]calllog.Record, error) {
	var args []any
	query := `SELECT ts, method, outcome, error, duration_ms FROM calls WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Method != "" {
		query += ` AND method = ?`
		args = append(args, q.Method)
	}
	if q.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, q.Outcome)
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []calllog.Record
	for rows.Next() {
		var (
			r  calllog.Record
			ts int64
		)
		if err := rows.Scan(&ts, &r.Method, &r.Outcome, &r.Error, &r.DurationMS); err != nil {
			return nil, err
		}
		r.Time = time.Unix(0, ts)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
