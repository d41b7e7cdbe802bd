// Package runs keeps a history of simulator training runs in SQLite.
package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kartoza/precast-yard/internal/simulator"
)

// ErrNotFound is returned when no run has the requested ID
var ErrNotFound = errors.New("training run not found")

// Run is one recorded training run
type Run struct {
	ID          string   `json:"id"`
	TrainedAt   string   `json:"trainedAt"`
	Samples     int      `json:"samples"`
	Rows        int      `json:"rows"`
	Seed        uint64   `json:"seed"`
	Alpha       float64  `json:"alpha"`
	Degree      int      `json:"degree"`
	DurationSec float64  `json:"durationSeconds"`
	DaysR2      *float64 `json:"daysR2,omitempty"`
	DaysR2Std   *float64 `json:"daysR2Std,omitempty"`
	CostR2      *float64 `json:"costR2,omitempty"`
	CostR2Std   *float64 `json:"costR2Std,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id           TEXT PRIMARY KEY,
	trained_at   TEXT NOT NULL,
	samples      INTEGER NOT NULL,
	row_count    INTEGER NOT NULL,
	seed         INTEGER NOT NULL,
	alpha        REAL NOT NULL,
	degree       INTEGER NOT NULL,
	duration_sec REAL NOT NULL,
	days_r2      REAL,
	days_r2_std  REAL,
	cost_r2      REAL,
	cost_r2_std  REAL
)`

const selectColumns = `id, trained_at, samples, row_count, seed, alpha, degree, duration_sec,
	days_r2, days_r2_std, cost_r2, cost_r2_std`

// Store persists training runs
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) runs.db under dataDir
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open(filepath.Join(dataDir, "runs.db"))
}

// Open opens the runs database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open runs database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a training report. It satisfies simulator.Recorder.
func (s *Store) Record(ctx context.Context, report *simulator.TrainingReport) error {
	var daysR2, daysStd, costR2, costStd sql.NullFloat64
	if report.DaysCV != nil {
		daysR2 = sql.NullFloat64{Float64: report.DaysCV.Mean, Valid: true}
		daysStd = sql.NullFloat64{Float64: report.DaysCV.Std, Valid: true}
	}
	if report.CostCV != nil {
		costR2 = sql.NullFloat64{Float64: report.CostCV.Mean, Valid: true}
		costStd = sql.NullFloat64{Float64: report.CostCV.Std, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_runs (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.TrainedAt.UTC().Format(time.RFC3339),
		report.Samples,
		report.Rows,
		int64(report.Seed),
		report.Alpha,
		report.Degree,
		report.Duration.Seconds(),
		daysR2, daysStd, costR2, costStd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + selectColumns + ` FROM training_runs ORDER BY trained_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get retrieves a run by ID
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM training_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run                              Run
		seed                             int64
		daysR2, daysStd, costR2, costStd sql.NullFloat64
	)
	err := sc.Scan(&run.ID, &run.TrainedAt, &run.Samples, &run.Rows, &seed, &run.Alpha, &run.Degree,
		&run.DurationSec, &daysR2, &daysStd, &costR2, &costStd)
	if err != nil {
		return nil, err
	}

	run.Seed = uint64(seed)
	run.DaysR2 = nullable(daysR2)
	run.DaysR2Std = nullable(daysStd)
	run.CostR2 = nullable(costR2)
	run.CostR2Std = nullable(costStd)
	return &run, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
