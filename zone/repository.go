package zone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("zone: not found")

// Repository handles data access for zones. Writes run inside a caller-owned
// transaction so audit entries land atomically with the change.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, z Zone) (Zone, error)
	Update(ctx context.Context, tx pgx.Tx, id string, params UpdateParams) (Zone, error)
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	Get(ctx context.Context, id string) (Zone, error)
	ListCurrent(ctx context.Context, now time.Time) ([]Zone, error)
	ListByOwner(ctx context.Context, userID string) ([]Zone, error)
}

const zoneColumns = `id, type, start_at, end_at, description, geometry, created_by, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed zone repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, z Zone) (Zone, error) {
	geom, err := EncodeGeometry(z.Geometry)
	if err != nil {
		return Zone{}, err
	}

	query := `
		INSERT INTO zones (id, type, start_at, end_at, description, geometry, created_by)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6::jsonb, $7)
		RETURNING ` + zoneColumns

	row := tx.QueryRow(ctx, query, z.ID, z.Type, z.Start, z.End, z.Description, string(geom), z.CreatedBy)
	created, err := scanZone(row)
	if err != nil {
		return Zone{}, fmt.Errorf("zone: create: %w", err)
	}
	return created, nil
}

// Update applies a partial field merge; untouched columns keep their value.
// Concurrent edits are last-writer-wins, there is no version token.
func (r *PGRepository) Update(ctx context.Context, tx pgx.Tx, id string, params UpdateParams) (Zone, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	if params.Type != nil {
		args = append(args, *params.Type)
		set = append(set, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Start != nil {
		args = append(args, *params.Start)
		set = append(set, fmt.Sprintf("start_at = $%d", len(args)))
	}
	if params.End != nil {
		args = append(args, *params.End)
		set = append(set, fmt.Sprintf("end_at = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, *params.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.Geometry != nil {
		geom, err := EncodeGeometry(params.Geometry)
		if err != nil {
			return Zone{}, err
		}
		args = append(args, string(geom))
		set = append(set, fmt.Sprintf("geometry = $%d::jsonb", len(args)))
	}

	query := fmt.Sprintf(`UPDATE zones SET %s WHERE id = $1 RETURNING %s`, strings.Join(set, ", "), zoneColumns)

	row := tx.QueryRow(ctx, query, args...)
	updated, err := scanZone(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, ErrNotFound
		}
		return Zone{}, fmt.Errorf("zone: update: %w", err)
	}
	return updated, nil
}

func (r *PGRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("zone: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE id = $1`

	z, err := scanZone(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, ErrNotFound
		}
		return Zone{}, fmt.Errorf("zone: get: %w", err)
	}
	return z, nil
}

// ListCurrent returns every zone that has not yet ended, soonest-ending
// first. Expired zones stay in the table as history and are excluded here.
func (r *PGRepository) ListCurrent(ctx context.Context, now time.Time) ([]Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE end_at > $1 ORDER BY end_at ASC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("zone: list current: %w", err)
	}
	defer rows.Close()

	return collectZones(rows)
}

// ListByOwner returns every zone a user has published, newest first.
func (r *PGRepository) ListByOwner(ctx context.Context, userID string) ([]Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("zone: list by owner: %w", err)
	}
	defer rows.Close()

	return collectZones(rows)
}

func collectZones(rows pgx.Rows) ([]Zone, error) {
	zones := []Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("zone: scan rows: %w", err)
	}
	return zones, nil
}

func scanZone(row pgx.Row) (Zone, error) {
	var (
		z    Zone
		geom []byte
	)
	err := row.Scan(
		&z.ID,
		&z.Type,
		&z.Start,
		&z.End,
		&z.Description,
		&geom,
		&z.CreatedBy,
		&z.CreatedAt,
		&z.UpdatedAt,
	)
	if err != nil {
		return Zone{}, err
	}

	z.Geometry, err = DecodeGeometry(geom)
	if err != nil {
		return Zone{}, err
	}
	return z, nil
}
