package zone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"safehunt/access"
	"safehunt/audit"
)

var (
	// ErrForbidden signals the session lacks the right to mutate a zone.
	ErrForbidden = errors.New("zone: operation not permitted")

	ErrTimesRequired   = errors.New("zone: start and end are required")
	ErrStartNotFuture  = errors.New("zone: start must be in the future")
	ErrEndBeforeStart  = errors.New("zone: end must be after start")
	ErrInvalidHuntType = errors.New("zone: invalid hunt type")
)

// IsValidationError reports whether err is a recoverable input problem the
// caller should show inline rather than a persistence failure.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrTimesRequired,
		ErrStartNotFuture,
		ErrEndBeforeStart,
		ErrInvalidHuntType,
		ErrGeometryMissing,
		ErrRadiusOutOfRange,
		ErrTooFewPoints,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns zone mutations. Reads are open to everyone; writes are gated
// by the access policy and validated again here, whatever the client did.
type Service struct {
	pool        TxBeginner
	repo        Repository
	audit       audit.Writer
	idGenerator func() string
	now         func() time.Time
}

func NewService(pool TxBeginner, repo Repository, auditor audit.Writer) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		audit:       auditor,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and publishes a new zone on behalf of the session user.
func (s *Service) Create(ctx context.Context, sess access.Session, params CreateParams) (Zone, error) {
	perms := access.Derive(sess)
	if !perms.CanCreateZones {
		return Zone{}, ErrForbidden
	}

	if err := validateDraft(params, s.now()); err != nil {
		return Zone{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Zone{}, fmt.Errorf("zone: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	z := Zone{
		ID:          s.idGenerator(),
		Type:        params.Type,
		Start:       params.Start,
		End:         params.End,
		Description: params.Description,
		Geometry:    params.Geometry,
		CreatedBy:   sess.User.ID,
	}

	created, err := s.repo.Create(ctx, tx, z)
	if err != nil {
		return Zone{}, err
	}

	if s.audit != nil {
		payload := map[string]any{
			"type":  created.Type,
			"start": created.Start,
			"end":   created.End,
		}
		if err := s.audit.Append(ctx, tx, created.ID, "ZONE_CREATED", &sess.User.ID, payload); err != nil {
			return Zone{}, fmt.Errorf("zone: append audit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Zone{}, fmt.Errorf("zone: commit tx: %w", err)
	}

	return created, nil
}

// Update applies a partial edit. Only the owner or an admin may touch a zone.
func (s *Service) Update(ctx context.Context, sess access.Session, id string, params UpdateParams) (Zone, error) {
	existing, err := s.authorizeMutation(ctx, sess, id)
	if err != nil {
		return Zone{}, err
	}

	start, end := existing.Start, existing.End
	if params.Start != nil {
		start = *params.Start
	}
	if params.End != nil {
		end = *params.End
	}
	if !end.After(start) {
		return Zone{}, ErrEndBeforeStart
	}
	if params.Type != nil && !isValidHuntType(*params.Type) {
		return Zone{}, ErrInvalidHuntType
	}
	if params.Geometry != nil {
		if err := params.Geometry.Validate(); err != nil {
			return Zone{}, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Zone{}, fmt.Errorf("zone: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.repo.Update(ctx, tx, id, params)
	if err != nil {
		return Zone{}, err
	}

	if s.audit != nil {
		payload := map[string]any{"start": updated.Start, "end": updated.End}
		if err := s.audit.Append(ctx, tx, updated.ID, "ZONE_UPDATED", &sess.User.ID, payload); err != nil {
			return Zone{}, fmt.Errorf("zone: append audit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Zone{}, fmt.Errorf("zone: commit tx: %w", err)
	}

	return updated, nil
}

// Delete removes a zone. Expiry never deletes zones; only their owner or an
// admin does.
func (s *Service) Delete(ctx context.Context, sess access.Session, id string) error {
	if _, err := s.authorizeMutation(ctx, sess, id); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("zone: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if s.audit != nil {
		if err := s.audit.Append(ctx, tx, id, "ZONE_DELETED", &sess.User.ID, nil); err != nil {
			return fmt.Errorf("zone: append audit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("zone: commit tx: %w", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Zone, error) {
	return s.repo.Get(ctx, id)
}

// ListCurrent is the public feed: zones that have not ended yet.
func (s *Service) ListCurrent(ctx context.Context) ([]Zone, error) {
	return s.repo.ListCurrent(ctx, s.now())
}

// ListByOwner returns a user's published zones, expired ones included.
func (s *Service) ListByOwner(ctx context.Context, userID string) ([]Zone, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *Service) authorizeMutation(ctx context.Context, sess access.Session, id string) (Zone, error) {
	perms := access.Derive(sess)
	if !perms.IsAuthenticated {
		return Zone{}, ErrForbidden
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Zone{}, err
	}
	if existing.CreatedBy != sess.User.ID && !perms.IsAdmin {
		return Zone{}, ErrForbidden
	}
	return existing, nil
}

// validateDraft re-checks everything the creation UI already enforced.
// Clients are not trusted to have done so.
func validateDraft(params CreateParams, now time.Time) error {
	if params.Geometry == nil {
		return ErrGeometryMissing
	}
	if err := params.Geometry.Validate(); err != nil {
		return err
	}
	if !isValidHuntType(params.Type) {
		return ErrInvalidHuntType
	}
	if params.Start.IsZero() || params.End.IsZero() {
		return ErrTimesRequired
	}
	if !params.Start.After(now) {
		return ErrStartNotFuture
	}
	if !params.End.After(params.Start) {
		return ErrEndBeforeStart
	}
	return nil
}
