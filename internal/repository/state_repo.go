package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"environment_controller/internal/codec"
	"environment_controller/internal/models"
)

// StateSQLite stores the versioned state record in a single-row table.
type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	controllerStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO controller_state (id, version, record, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version=excluded.version,
			record=excluded.record,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT record FROM controller_state WHERE id=?
	`
)

// Save upserts the controller_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, s *models.State) (int, error) {
	rec, err := codec.MarshalRecord(s)
	if err != nil {
		return 0, err
	}
	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		controllerStateRowID,
		codec.RecordVersion,
		rec,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: save state row: %v", ErrStorageUnavailable, err)
	}
	return len(rec), nil
}

// Load reads the controller_state row (id=1) into s.
func (r *StateSQLite) Load(ctx context.Context, s *models.State) (LoadResult, error) {
	res := LoadResult{Source: "controller_state"}

	var rec []byte
	err := r.db.QueryRowContext(ctx, selectStateSQL, controllerStateRowID).Scan(&rec)
	if err != nil {
		s.InitializeDefaults()
		if errors.Is(err, sql.ErrNoRows) {
			return res, ErrStateNotFound
		}
		return res, fmt.Errorf("%w: load state row: %v", ErrStorageUnavailable, err)
	}

	rep, err := codec.UnmarshalRecord(rec, s)
	res.Report = rep
	if err != nil {
		s.InitializeDefaults()
		return res, err
	}
	return res, nil
}
