// Package actors contains the concurrent workloads of the stress harness.
// Each actor loops against the database directly, the way contending API
// instances would, until the stop channel closes.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Publisher inserts zones with random valid windows and geometries for one
// certified hunter, appending the matching audit entry in the same tx.
func Publisher(ctx context.Context, pool *pgxpool.Pool, hunterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		start := time.Now().Add(time.Duration(1+rand.Intn(120)) * time.Minute)
		end := start.Add(time.Duration(30+rand.Intn(240)) * time.Minute)

		var zoneID string
		err = tx.QueryRow(ctx, `
			INSERT INTO zones (type, start_at, end_at, geometry, created_by)
			VALUES ($1, $2, $3, $4::jsonb, $5)
			RETURNING id`,
			randomHuntType(), start, end, randomGeometry(), hunterID,
		).Scan(&zoneID)
		if err == nil {
			_, err = tx.Exec(ctx, `
				INSERT INTO audit_events (subject_id, type, actor_id, payload)
				VALUES ($1, 'ZONE_CREATED', $2, '{}'::jsonb)`, zoneID, hunterID)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				return fmt.Errorf("publisher insert: %w", err)
			}
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Editor shifts a random zone's window under row lock, always keeping the
// window valid, and appends the audit entry atomically.
func Editor(ctx context.Context, pool *pgxpool.Pool, hunterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		var zoneID string
		err = tx.QueryRow(ctx, `
			SELECT id FROM zones WHERE created_by = $1
			ORDER BY random() LIMIT 1 FOR UPDATE SKIP LOCKED`, hunterID).Scan(&zoneID)
		if err == nil {
			shift := time.Duration(rand.Intn(60)) * time.Minute
			_, err = tx.Exec(ctx, `
				UPDATE zones
				SET start_at = start_at + $2, end_at = end_at + $2, updated_at = now()
				WHERE id = $1`, zoneID, shift)
			if err == nil {
				_, err = tx.Exec(ctx, `
					INSERT INTO audit_events (subject_id, type, actor_id, payload)
					VALUES ($1, 'ZONE_UPDATED', $2, '{}'::jsonb)`, zoneID, hunterID)
			}
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Remover deletes one of the hunter's zones at a time, racing the editor on
// the same rows.
func Remover(ctx context.Context, pool *pgxpool.Pool, hunterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		var zoneID string
		err = tx.QueryRow(ctx, `
			SELECT id FROM zones WHERE created_by = $1
			ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED`, hunterID).Scan(&zoneID)
		if err == nil {
			if _, err = tx.Exec(ctx, `DELETE FROM zones WHERE id = $1`, zoneID); err == nil {
				_, err = tx.Exec(ctx, `
					INSERT INTO audit_events (subject_id, type, actor_id, payload)
					VALUES ($1, 'ZONE_DELETED', $2, '{}'::jsonb)`, zoneID, hunterID)
			}
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(150+rand.Intn(100)) * time.Millisecond)
	}
}

// Certifier flips a hunter's certification back and forth the way an admin
// panel would, stamping the matching timestamp on every flip.
func Certifier(ctx context.Context, pool *pgxpool.Pool, adminID, hunterID string, stop <-chan struct{}) error {
	certified := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET certified = $2,
			    certified_at = CASE WHEN $2 THEN now() ELSE certified_at END,
			    revoked_at = CASE WHEN $2 THEN revoked_at ELSE now() END,
			    updated_at = now()
			WHERE id = $1`, hunterID, certified)
		if err == nil {
			event := "HUNTER_CERTIFIED"
			if !certified {
				event = "CERTIFICATION_REVOKED"
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO audit_events (subject_id, type, actor_id, payload)
				VALUES ($1, $2, $3, '{}'::jsonb)`, hunterID, event, adminID)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
		certified = !certified
		time.Sleep(time.Duration(100+rand.Intn(150)) * time.Millisecond)
	}
}

// FeedReader hammers the public map query while the writers churn.
func FeedReader(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rows, err := pool.Query(ctx, `
			SELECT id, type, start_at, end_at, geometry
			FROM zones WHERE end_at > now() ORDER BY end_at ASC`)
		if err == nil {
			for rows.Next() {
			}
			rows.Close()
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

func randomHuntType() string {
	types := []string{"battue", "approche", "affut", "autre"}
	return types[rand.Intn(len(types))]
}

func randomGeometry() string {
	if rand.Intn(2) == 0 {
		radius := 100 + rand.Intn(3901)
		return fmt.Sprintf(`{"type":"circle","lat":45.%d,"lng":5.%d,"radius":%d}`,
			rand.Intn(1000), rand.Intn(1000), radius)
	}
	points := ""
	n := 3 + rand.Intn(3)
	for i := 0; i < n; i++ {
		if i > 0 {
			points += ","
		}
		points += fmt.Sprintf("[45.%d,5.%d]", rand.Intn(1000), rand.Intn(1000))
	}
	return fmt.Sprintf(`{"type":"polygon","points":[%s]}`, points)
}
