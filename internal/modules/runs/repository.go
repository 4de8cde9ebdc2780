// Package runs persists optimization run history.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Run status values
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a run ID does not exist
var ErrNotFound = errors.New("run not found")

// HistoryEntry is one objective evaluation of a run
type HistoryEntry struct {
	Iteration int       `msgpack:"iteration" json:"iteration"`
	Params    []float64 `msgpack:"params" json:"params"`
	Cost      float64   `msgpack:"cost" json:"cost"`
}

// Record is a persisted optimization run
type Record struct {
	ID            string         `json:"id"`
	Expression    string         `json:"expression,omitempty"`
	Backend       string         `json:"backend"`
	Depth         int            `json:"depth"`
	Shots         int            `json:"shots"`
	NumQubits     int            `json:"num_qubits"`
	OptimalCost   float64        `json:"optimal_cost"`
	OptimalParams []float64      `json:"optimal_params,omitempty"`
	Counts        map[string]int `json:"counts,omitempty"`
	Iterations    int            `json:"iterations"`
	Converged     bool           `json:"converged"`
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
	History       []HistoryEntry `json:"history,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Repository stores run records in SQLite
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a runs repository and ensures its schema exists
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	repo := &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
	if err := repo.initSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			expression TEXT NOT NULL DEFAULT '',
			backend TEXT NOT NULL,
			depth INTEGER NOT NULL,
			shots INTEGER NOT NULL,
			num_qubits INTEGER NOT NULL DEFAULT 0,
			optimal_cost REAL NOT NULL DEFAULT 0,
			optimal_params TEXT NOT NULL DEFAULT '[]',
			counts TEXT NOT NULL DEFAULT '{}',
			iterations INTEGER NOT NULL DEFAULT 0,
			converged INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			history BLOB,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create runs index: %w", err)
	}
	return nil
}

// Save inserts or replaces a run record
func (r *Repository) Save(ctx context.Context, record Record) error {
	params, err := json.Marshal(record.OptimalParams)
	if err != nil {
		return fmt.Errorf("failed to encode optimal params: %w", err)
	}

	counts, err := json.Marshal(record.Counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}

	// History blobs can be large (one entry per objective evaluation);
	// msgpack keeps them compact.
	var history []byte
	if len(record.History) > 0 {
		history, err = msgpack.Marshal(record.History)
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, expression, backend, depth, shots, num_qubits,
			optimal_cost, optimal_params, counts, iterations, converged,
			status, error, history, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Expression, record.Backend, record.Depth, record.Shots,
		record.NumQubits, record.OptimalCost, string(params), string(counts),
		record.Iterations, boolToInt(record.Converged), record.Status,
		record.Error, history, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}
	return nil
}

// Get fetches one run by ID, including its full history
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, expression, backend, depth, shots, num_qubits,
		       optimal_cost, optimal_params, counts, iterations, converged,
		       status, error, history, created_at
		FROM runs WHERE id = ?
	`, id)

	record, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return record, nil
}

// List returns the most recent runs (without history blobs), newest first
func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, expression, backend, depth, shots, num_qubits,
		       optimal_cost, optimal_params, counts, iterations, converged,
		       status, error, NULL, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Count returns the total number of stored runs
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes runs created before the cutoff and returns the
// number removed. Used by the retention job.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner, withHistory bool) (*Record, error) {
	var record Record
	var params, counts string
	var history []byte
	var converged int
	var createdAt int64

	err := row.Scan(
		&record.ID, &record.Expression, &record.Backend, &record.Depth,
		&record.Shots, &record.NumQubits, &record.OptimalCost, &params,
		&counts, &record.Iterations, &converged, &record.Status,
		&record.Error, &history, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &record.OptimalParams); err != nil {
		return nil, fmt.Errorf("corrupt optimal params for run %s: %w", record.ID, err)
	}
	if err := json.Unmarshal([]byte(counts), &record.Counts); err != nil {
		return nil, fmt.Errorf("corrupt counts for run %s: %w", record.ID, err)
	}
	if withHistory && len(history) > 0 {
		if err := msgpack.Unmarshal(history, &record.History); err != nil {
			return nil, fmt.Errorf("corrupt history for run %s: %w", record.ID, err)
		}
	}

	record.Converged = converged != 0
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
