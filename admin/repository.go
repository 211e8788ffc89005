package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safehunt/auth"
)

var ErrUserNotFound = errors.New("admin: user not found")

// Repository handles the data access behind the certification surface.
type Repository interface {
	GetUser(ctx context.Context, userID string) (auth.User, error)
	PendingHunters(ctx context.Context) ([]auth.User, error)
	CertifiedHunters(ctx context.Context) ([]auth.User, error)
	SetCertification(ctx context.Context, tx pgx.Tx, userID string, certified bool, at time.Time) (auth.User, error)
	Stats(ctx context.Context) (Stats, error)
}

const userColumns = `id, email, display_name, password_hash, role, certified, certified_at, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetUser(ctx context.Context, userID string) (auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("admin: get user: %w", err)
	}
	return user, nil
}

// PendingHunters lists hunter accounts awaiting certification, newest first.
func (r *PGRepository) PendingHunters(ctx context.Context) ([]auth.User, error) {
	return r.listHunters(ctx, false)
}

// CertifiedHunters lists certified hunter accounts, newest first.
func (r *PGRepository) CertifiedHunters(ctx context.Context) ([]auth.User, error) {
	return r.listHunters(ctx, true)
}

func (r *PGRepository) listHunters(ctx context.Context, certified bool) ([]auth.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND certified = $2
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, auth.RoleChasseur, certified)
	if err != nil {
		return nil, fmt.Errorf("admin: list hunters: %w", err)
	}
	defer rows.Close()

	users := []auth.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetCertification flips the certified flag. Certifying stamps certified_at
// even when re-certifying after a revocation; revoking stamps revoked_at.
func (r *PGRepository) SetCertification(ctx context.Context, tx pgx.Tx, userID string, certified bool, at time.Time) (auth.User, error) {
	query := `
		UPDATE users
		SET certified = $2,
		    certified_at = CASE WHEN $2 THEN $3 ELSE certified_at END,
		    revoked_at = CASE WHEN $2 THEN revoked_at ELSE $3 END,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRow(ctx, query, userID, certified, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("admin: set certification: %w", err)
	}
	return user, nil
}

// Stats counts users by role and certification state.
func (r *PGRepository) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE role = 'randonneur'),
			COUNT(*) FILTER (WHERE role = 'chasseur'),
			COUNT(*) FILTER (WHERE role = 'chasseur' AND certified),
			COUNT(*) FILTER (WHERE role = 'chasseur' AND NOT certified),
			COUNT(*) FILTER (WHERE role = 'admin')
		FROM users
	`

	var s Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalUsers,
		&s.Randonneurs,
		&s.Chasseurs,
		&s.CertifiedHunters,
		&s.PendingHunters,
		&s.Admins,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("admin: stats: %w", err)
	}
	return s, nil
}

func scanUser(row pgx.Row) (auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.Role,
		&user.Certified,
		&user.CertifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return auth.User{}, err
	}
	return user, nil
}
