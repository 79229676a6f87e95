package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// getTestMySQLDSN returns the DSN for a real MySQL instance to exercise
// MySQLStore against, or "" if TEST_MYSQL_DSN is unset.
func getTestMySQLDSN() string {
	return os.Getenv("TEST_MYSQL_DSN")
}

func TestNewMySQLStoreRejectsMalformedDSN(t *testing.T) {
	// go-sql-driver/mysql parses the DSN at sql.Open time, before any
	// connection is attempted, so this doesn't need a live server.
	if _, err := NewMySQLStore("not a valid dsn"); err == nil {
		t.Fatal("expected error for malformed DSN, got nil")
	}
}

func TestMySQLStoreIntegration(t *testing.T) {
	dsn := getTestMySQLDSN()
	if dsn == "" {
		t.Skip("skipping MySQL integration test: TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	s, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore: %v", err)
	}
	defer s.Close()

	started := time.Now().UTC().Truncate(time.Second)
	run := RunRecord{RunID: "mysql-it-1", FlowPath: "flow.yaml", TotalLines: 1, Status: "Running", StartedAt: started}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.LoadRun(ctx, "mysql-it-1")
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if got.Status != "Running" || got.TotalLines != 1 {
		t.Fatalf("unexpected run record: %+v", got)
	}

	line := LineRecord{RunID: "mysql-it-1", LineIndex: 0, Status: "Completed", Output: map[string]any{"ok": true}, StartedAt: started}
	if err := s.SaveLine(ctx, line); err != nil {
		t.Fatalf("SaveLine: %v", err)
	}
	lines, err := s.LoadLines(ctx, "mysql-it-1")
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}
	if len(lines) != 1 || lines[0].Status != "Completed" {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	if _, err := s.LoadRun(ctx, "mysql-it-nonexistent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
