// Package audit records immutable business events alongside the writes that
// caused them. Entries are appended inside the caller's transaction so the
// history can never diverge from the data.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one recorded event. SubjectID points at the zone or user the
// event concerns; ActorID is the account that triggered it.
type Entry struct {
	ID        int64
	SubjectID string
	Type      string
	ActorID   *string
	Payload   []byte
	CreatedAt time.Time
}

// Writer appends events within an open transaction.
type Writer interface {
	Append(ctx context.Context, tx pgx.Tx, subjectID, eventType string, actorID *string, payload map[string]any) error
}

// PGWriter implements Writer backed by PostgreSQL.
type PGWriter struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *PGWriter {
	return &PGWriter{pool: pool}
}

func (w *PGWriter) Append(ctx context.Context, tx pgx.Tx, subjectID, eventType string, actorID *string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit: marshal payload: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO audit_events (subject_id, type, actor_id, payload)
		VALUES ($1, $2, $3::uuid, $4::jsonb)
	`, subjectID, eventType, actorID, string(data)); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// List returns the recorded history for one subject, oldest first.
func (w *PGWriter) List(ctx context.Context, subjectID string) ([]Entry, error) {
	rows, err := w.pool.Query(ctx, `
		SELECT id, subject_id, type, actor_id, payload, created_at
		FROM audit_events
		WHERE subject_id = $1
		ORDER BY id ASC
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Type, &e.ActorID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
