package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"environment_controller/internal/models"

	"github.com/google/uuid"
)

// sqliteTimestamp is the TIMESTAMP text layout used for occurred_at.
const sqliteTimestamp = "2006-01-02 15:04:05"

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e models.ControllerEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO controller_events (id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.EventID,
		e.OccurredAt.Format(sqliteTimestamp),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive) and/or type, ordered
// ASC. A positive limit keeps only the most recent limit events.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.ControllerEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestamp))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestamp))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, occurred_at, type, message, meta FROM controller_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if limit > 0 {
		q = `SELECT id, occurred_at, type, message, meta FROM (` + q +
			` ORDER BY occurred_at DESC LIMIT ?)`
		args = append(args, limit)
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ControllerEvent, 0, 64)
	for rows.Next() {
		var ev models.ControllerEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes events that occurred before cutoff.
func (r *EventSQLite) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM controller_events WHERE occurred_at < ?`,
		cutoff.UTC().Format(sqliteTimestamp),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NoopEventRepo discards events. Used when the journal is disabled.
type NoopEventRepo struct{}

func (NoopEventRepo) Append(context.Context, models.ControllerEvent) error { return nil }

func (NoopEventRepo) List(context.Context, time.Time, time.Time, string, int) ([]models.ControllerEvent, error) {
	return []models.ControllerEvent{}, nil
}

func (NoopEventRepo) Prune(context.Context, time.Time) (int64, error) { return 0, nil }
