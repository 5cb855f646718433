// Package journal persists the metric points the console accepts from
// the stream, so a session's time series outlives the in-memory ring.
// Recording is best-effort: failures are reported to the caller's logger
// and never interrupt snapshot handling.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"liftlogic/console/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	base_url   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS metrics_points (
	session_id   TEXT NOT NULL REFERENCES sessions(session_id),
	time         INTEGER NOT NULL,
	average_wait REAL NOT NULL,
	throughput   REAL NOT NULL,
	recorded_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_session_time
	ON metrics_points(session_id, time);
`

// Store records one console session's accepted metric points.
type Store struct {
	db        *sql.DB
	sessionID string
}

// Open creates or opens the journal database and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Begin opens a new session row and scopes subsequent records to it.
func (s *Store) Begin(ctx context.Context, baseURL string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(session_id, started_at, base_url) VALUES (?, ?, ?)`,
		id, time.Now().UnixMilli(), baseURL)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	s.sessionID = id
	return id, nil
}

var errNoSession = errors.New("journal session not begun")

// Record inserts one accepted metric point for the current session.
func (s *Store) Record(ctx context.Context, p history.Point) error {
	if s.sessionID == "" {
		return errNoSession
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics_points(session_id, time, average_wait, throughput, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.sessionID, p.Time, p.AverageWait, p.Throughput, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record point: %w", err)
	}
	return nil
}

// Points reads back the current session's series in tick order.
func (s *Store) Points(ctx context.Context) ([]history.Point, error) {
	if s.sessionID == "" {
		return nil, errNoSession
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, average_wait, throughput FROM metrics_points
		 WHERE session_id = ? ORDER BY time, recorded_at`, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()
	var points []history.Point
	for rows.Next() {
		var p history.Point
		if err := rows.Scan(&p.Time, &p.AverageWait, &p.Throughput); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
