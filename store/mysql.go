package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is the production Store backend: connection-pooled, safe for
// multiple CLI runner processes writing concurrently to the same database.
//
// dsn follows the go-sql-driver/mysql format, e.g.
// "user:pass@tcp(localhost:3306)/flowdag?parseTime=true".
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool and migrates the schema if needed.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	s := &MySQLStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs (
	run_id VARCHAR(255) PRIMARY KEY,
	flow_path TEXT NOT NULL,
	total_lines INT NOT NULL,
	completed INT NOT NULL,
	failed INT NOT NULL,
	status VARCHAR(32) NOT NULL,
	started_at DATETIME NOT NULL,
	ended_at DATETIME NULL,
	aggregate_outputs JSON
) ENGINE=InnoDB`)
	if err != nil {
		return fmt.Errorf("migrate runs table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS lines (
	run_id VARCHAR(255) NOT NULL,
	line_index INT NOT NULL,
	status VARCHAR(32) NOT NULL,
	output JSON,
	error TEXT,
	started_at DATETIME NOT NULL,
	ended_at DATETIME NULL,
	PRIMARY KEY (run_id, line_index)
) ENGINE=InnoDB`)
	if err != nil {
		return fmt.Errorf("migrate lines table: %w", err)
	}
	return nil
}

func (s *MySQLStore) SaveRun(ctx context.Context, run RunRecord) error {
	outputs, err := json.Marshal(run.AggregateOutputs)
	if err != nil {
		return fmt.Errorf("marshal aggregate outputs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, flow_path, total_lines, completed, failed, status, started_at, ended_at, aggregate_outputs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE total_lines=VALUES(total_lines), completed=VALUES(completed),
	failed=VALUES(failed), status=VALUES(status), ended_at=VALUES(ended_at),
	aggregate_outputs=VALUES(aggregate_outputs)`,
		run.RunID, run.FlowPath, run.TotalLines, run.Completed, run.Failed, run.Status, run.StartedAt, run.EndedAt, string(outputs))
	return err
}

func (s *MySQLStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	var run RunRecord
	var outputs sql.NullString
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
	if outputs.Valid && outputs.String != "" {
		if err := json.Unmarshal([]byte(outputs.String), &run.AggregateOutputs); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal aggregate outputs: %w", err)
		}
	}
	return run, nil
}

func (s *MySQLStore) SaveLine(ctx context.Context, line LineRecord) error {
	output, err := json.Marshal(line.Output)
	if err != nil {
		return fmt.Errorf("marshal line output: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO lines (run_id, line_index, status, output, error, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE status=VALUES(status), output=VALUES(output), error=VALUES(error), ended_at=VALUES(ended_at)`,
		line.RunID, line.LineIndex, line.Status, string(output), line.Error, line.StartedAt, line.EndedAt)
	return err
}

func (s *MySQLStore) LoadLines(ctx context.Context, runID string) ([]LineRecord, error) {
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
		var output sql.NullString
		var endedAt sql.NullTime
		if err := rows.Scan(&l.RunID, &l.LineIndex, &l.Status, &output, &l.Error, &l.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		l.EndedAt = endedAt.Time
		if output.Valid && output.String != "" {
			if err := json.Unmarshal([]byte(output.String), &l.Output); err != nil {
				return nil, fmt.Errorf("unmarshal line output: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *MySQLStore) Close() error { return s.db.Close() }
