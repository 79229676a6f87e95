package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default Store backend for the CLI runner: a single
// database file with zero external setup, WAL mode for concurrent reads.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed Store at path.
// Use ":memory:" for a throwaway in-process database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	flow_path TEXT NOT NULL,
	total_lines INTEGER NOT NULL,
	completed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	ended_at TIMESTAMP,
	aggregate_outputs TEXT
);
CREATE TABLE IF NOT EXISTS lines (
	run_id TEXT NOT NULL,
	line_index INTEGER NOT NULL,
	status TEXT NOT NULL,
	output TEXT,
	error TEXT,
	started_at TIMESTAMP NOT NULL,
	ended_at TIMESTAMP,
	PRIMARY KEY (run_id, line_index)
);
`)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	outputs, err := json.Marshal(run.AggregateOutputs)
	if err != nil {
		return fmt.Errorf("marshal aggregate outputs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, flow_path, total_lines, completed, failed, status, started_at, ended_at, aggregate_outputs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	total_lines=excluded.total_lines, completed=excluded.completed, failed=excluded.failed,
	status=excluded.status, ended_at=excluded.ended_at, aggregate_outputs=excluded.aggregate_outputs`,
		run.RunID, run.FlowPath, run.TotalLines, run.Completed, run.Failed, run.Status, run.StartedAt, run.EndedAt, string(outputs))
	return err
}

func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	var run RunRecord
	var outputs string
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT run_id, flow_path, total_lines, completed, failed, status, started_at, ended_at, aggregate_outputs
FROM runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.FlowPath, &run.TotalLines, &run.Completed, &run.Failed, &run.Status, &run.StartedAt, &endedAt, &outputs)
	if err == sql.ErrNoRows {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	run.EndedAt = endedAt.Time
	if outputs != "" {
		if err := json.Unmarshal([]byte(outputs), &run.AggregateOutputs); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal aggregate outputs: %w", err)
		}
	}
	return run, nil
}

func (s *SQLiteStore) SaveLine(ctx context.Context, line LineRecord) error {
	output, err := json.Marshal(line.Output)
	if err != nil {
		return fmt.Errorf("marshal line output: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO lines (run_id, line_index, status, output, error, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, line_index) DO UPDATE SET
	status=excluded.status, output=excluded.output, error=excluded.error, ended_at=excluded.ended_at`,
		line.RunID, line.LineIndex, line.Status, string(output), line.Error, line.StartedAt, line.EndedAt)
	return err
}

func (s *SQLiteStore) LoadLines(ctx context.Context, runID string) ([]LineRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, line_index, status, output, error, started_at, ended_at
FROM lines WHERE run_id = ? ORDER BY line_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineRecord
	for rows.Next() {
		var l LineRecord
		var output string
		var endedAt sql.NullTime
		if err := rows.Scan(&l.RunID, &l.LineIndex, &l.Status, &output, &l.Error, &l.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		l.EndedAt = endedAt.Time
		if output != "" {
			if err := json.Unmarshal([]byte(output), &l.Output); err != nil {
				return nil, fmt.Errorf("unmarshal line output: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
