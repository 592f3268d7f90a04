package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

//go:embed sql/list-samples.sql
var listSamplesSQL string

//go:embed sql/count-samples.sql
var countSamplesSQL string

//go:embed sql/delete-samples.sql
var deleteSamplesSQL string

//go:embed sql/insert-sample.sql
var insertSampleSQL string

type SampleRepository interface {
	ListSamples() ([]types.Sample, error)
	CountSamples() (int, error)
	// ReplaceSamples atomically swaps the stored dataset for samples, keeping
	// their order.
	ReplaceSamples(samples []types.Sample) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SampleRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListSamples() ([]types.Sample, error) {
	rows, err := r.db.Query(listSamplesSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close samples rows", "error", err)
		}
	}()
	return scanSamples(rows)
}

func (r *repositoryImpl) CountSamples() (int, error) {
	var n int
	err := r.db.QueryRow(countSamplesSQL).Scan(&n)
	return n, err
}

func (r *repositoryImpl) ReplaceSamples(samples []types.Sample) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback replace samples", "error", rbErr)
			}
		}
	}()

	if _, err = tx.Exec(deleteSamplesSQL); err != nil {
		return fmt.Errorf("delete samples: %w", err)
	}

	stmt, err := tx.Prepare(insertSampleSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			slog.Error("close insert statement", "error", closeErr)
		}
	}()

	for i, s := range samples {
		ts := s.Time.UTC().Format(time.RFC3339Nano)
		if _, err = stmt.Exec(ts, i, s.Pressure, s.Temperature, s.WindSpeed); err != nil {
			return fmt.Errorf("insert sample %s: %w", ts, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanSamples(rows *sql.Rows) ([]types.Sample, error) {
	var out []types.Sample
	for rows.Next() {
		var s types.Sample
		var ts string
		if err := rows.Scan(&ts, &s.Pressure, &s.Temperature, &s.WindSpeed); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, ts)
			if err2 != nil {
				return nil, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
			}
		}
		s.Time = t
		out = append(out, s)
	}
	return out, rows.Err()
}
