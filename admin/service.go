package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"safehunt/access"
	"safehunt/audit"
	"safehunt/auth"
)

var (
	// ErrAdminOnly signals the session lacks the admin role.
	ErrAdminOnly = errors.New("admin: admin access required")
	// ErrNotHunter signals a certification action against a non-hunter account.
	ErrNotHunter = errors.New("admin: certification only applies to hunters")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns the certification workflow. Every operation requires an
// admin session; denial is an error here because the transport layer has
// already resolved its guard.
type Service struct {
	pool  TxBeginner
	repo  Repository
	audit audit.Writer
	now   func() time.Time
}

func NewService(pool TxBeginner, repo Repository, auditor audit.Writer) *Service {
	return &Service{
		pool:  pool,
		repo:  repo,
		audit: auditor,
		now:   time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Certify grants a hunter the right to publish zones. Re-certifying after a
// revocation is allowed and overwrites the certification timestamp.
func (s *Service) Certify(ctx context.Context, sess access.Session, hunterID string) (auth.User, error) {
	return s.setCertification(ctx, sess, hunterID, true, "HUNTER_CERTIFIED")
}

// Revoke withdraws certification. The account keeps its role and may be
// certified again later.
func (s *Service) Revoke(ctx context.Context, sess access.Session, hunterID string) (auth.User, error) {
	return s.setCertification(ctx, sess, hunterID, false, "CERTIFICATION_REVOKED")
}

func (s *Service) setCertification(ctx context.Context, sess access.Session, hunterID string, certified bool, eventType string) (auth.User, error) {
	if !access.Derive(sess).IsAdmin {
		return auth.User{}, ErrAdminOnly
	}

	target, err := s.repo.GetUser(ctx, hunterID)
	if err != nil {
		return auth.User{}, err
	}
	if target.Role != auth.RoleChasseur {
		return auth.User{}, ErrNotHunter
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return auth.User{}, fmt.Errorf("admin: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.repo.SetCertification(ctx, tx, hunterID, certified, s.now())
	if err != nil {
		return auth.User{}, err
	}

	if s.audit != nil {
		payload := map[string]any{"certified": certified}
		if err := s.audit.Append(ctx, tx, hunterID, eventType, &sess.User.ID, payload); err != nil {
			return auth.User{}, fmt.Errorf("admin: append audit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return auth.User{}, fmt.Errorf("admin: commit tx: %w", err)
	}

	return updated, nil
}

// PendingHunters lists hunters awaiting certification.
func (s *Service) PendingHunters(ctx context.Context, sess access.Session) ([]auth.User, error) {
	if !access.Derive(sess).IsAdmin {
		return nil, ErrAdminOnly
	}
	return s.repo.PendingHunters(ctx)
}

// CertifiedHunters lists hunters allowed to publish zones.
func (s *Service) CertifiedHunters(ctx context.Context, sess access.Session) ([]auth.User, error) {
	if !access.Derive(sess).IsAdmin {
		return nil, ErrAdminOnly
	}
	return s.repo.CertifiedHunters(ctx)
}

// GetUser returns one account's details.
func (s *Service) GetUser(ctx context.Context, sess access.Session, userID string) (auth.User, error) {
	if !access.Derive(sess).IsAdmin {
		return auth.User{}, ErrAdminOnly
	}
	return s.repo.GetUser(ctx, userID)
}

// Stats summarizes the user base.
func (s *Service) Stats(ctx context.Context, sess access.Session) (Stats, error) {
	if !access.Derive(sess).IsAdmin {
		return Stats{}, ErrAdminOnly
	}
	return s.repo.Stats(ctx)
}
