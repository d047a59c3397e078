// Package persistence provides SQLite-based storage for completed
// orchestration runs, consumed by the dashboard history endpoint. The core
// loop itself never reads from here; run history is observability, not loop
// state.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"relieforch/pkg/logx"
	"relieforch/pkg/proto"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	goal        TEXT NOT NULL,
	loop        INTEGER NOT NULL,
	score       REAL NOT NULL,
	allocated   INTEGER NOT NULL,
	report_json TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// RunRecord is one stored run.
type RunRecord struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	Goal       string    `json:"goal"`
	ReportJSON string    `json:"report_json,omitempty"`
	Score      float64   `json:"score"`
	Loop       int       `json:"loop"`
	Allocated  int       `json:"allocated"`
}

// Store wraps the SQLite run history database.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates or opens the run history database at dbPath and initializes
// the schema. Safe to call on an existing database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Info("run history database ready: %s", dbPath)

	return &Store{db: db, logger: logger}, nil
}

// SaveRun stores a completed run report and returns its assigned ID.
func (s *Store) SaveRun(ctx context.Context, goal string, report *proto.Report) (string, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, goal, loop, score, allocated, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, goal, report.Loop, report.Evaluation.EffectivenessScore,
		report.Evaluation.Allocated, string(reportJSON), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	s.logger.Debug("saved run %s (goal=%q loop=%d)", id, goal, report.Loop)
	return id, nil
}

// ListRuns returns the most recent runs, newest first, without report
// bodies.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, goal, loop, score, allocated, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	records := []RunRecord{}
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Goal, &rec.Loop, &rec.Score, &rec.Allocated, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

// GetRun returns one stored run including its full report JSON.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, goal, loop, score, allocated, report_json, created_at
		 FROM runs WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Goal, &rec.Loop, &rec.Score, &rec.Allocated, &rec.ReportJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	return &rec, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
