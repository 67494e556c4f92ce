package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/botan/internal/errors"
	"github.com/hpungsan/botan/internal/eventlog"
)

// ErrUniqueConstraint is returned when an insert reuses an event id.
var ErrUniqueConstraint = &errors.BotanError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// InsertEvent appends an event. The full event is stored as JSON; the
// indexed columns are a projection of it.
func InsertEvent(ctx context.Context, db *sql.DB, e *eventlog.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.NewInternal(err)
	}

	var prompt, completion, total sql.NullInt64
	if e.Usage != nil {
		prompt = toNullInt(e.Usage.PromptTokens)
		completion = toNullInt(e.Usage.CompletionTokens)
		if t, ok := e.Usage.Total(); ok {
			total = sql.NullInt64{Int64: int64(t), Valid: true}
		}
	}

	query := `
		INSERT INTO events (
			id, ts, kind, provider, model, target, rating,
			prompt_tokens, completion_tokens, total_tokens, latency_ms, event_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx, query,
		e.ID, e.TS, e.Kind, toNullString(e.Provider), toNullString(e.Model), toNullString(e.Target),
		toNullInt(e.Rating), prompt, completion, total, e.LatencyMs, string(data),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		if ctx.Err() != nil {
			return errors.NewCancelled("event insert")
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetEvent retrieves an event by id.
func GetEvent(ctx context.Context, db *sql.DB, id string) (*eventlog.Event, error) {
	var data string
	err := db.QueryRowContext(ctx, `SELECT event_json FROM events WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("event", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return decodeEvent(data)
}

// ListEvents returns the last limit events in insertion order; limit <= 0
// returns all of them.
func ListEvents(ctx context.Context, db *sql.DB, limit int) ([]*eventlog.Event, error) {
	query := `SELECT event_json FROM events ORDER BY seq ASC`
	args := []any{}
	if limit > 0 {
		query = `SELECT event_json FROM (
			SELECT seq, event_json FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	events := []*eventlog.Event{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.NewInternal(err)
		}
		e, err := decodeEvent(data)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func CountEvents(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func decodeEvent(data string) (*eventlog.Event, error) {
	var e eventlog.Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &e, nil
}

// toNullString maps "" to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullInt converts a *int to sql.NullInt64.
func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
