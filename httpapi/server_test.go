package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"safehunt/admin"
	"safehunt/auth"
	"safehunt/zone"
)

var fixedNow = time.Date(2025, 10, 4, 8, 0, 0, 0, time.UTC)

// harness bundles the in-memory backends behind a ready-to-serve router.
type harness struct {
	server    *Server
	authRepo  *fakeAuthRepo
	zoneRepo  *fakeZoneRepo
	adminRepo *fakeAdminRepo
}

func newHarness() *harness {
	authRepo := newFakeAuthRepo()
	zoneRepo := newFakeZoneRepo()
	adminRepo := newFakeAdminRepo(authRepo)

	authSvc := auth.NewService(authRepo, "test-secret")
	zoneSvc := zone.NewService(&fakePool{}, zoneRepo, nil)
	adminSvc := admin.NewService(&fakePool{}, adminRepo, nil)

	return &harness{
		server:    NewServer(authSvc, zoneSvc, adminSvc, nil, []string{"http://localhost:5173"}),
		authRepo:  authRepo,
		zoneRepo:  zoneRepo,
		adminRepo: adminRepo,
	}
}

// addUser seeds an account with the password "motdepasse" and returns it.
func (h *harness) addUser(id string, role auth.Role, certified bool) auth.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("motdepasse"), bcrypt.MinCost)
	user := auth.User{
		ID:           id,
		Email:        id + "@example.fr",
		DisplayName:  id,
		PasswordHash: string(hash),
		Role:         role,
		Certified:    certified,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	h.authRepo.put(user)
	return user
}

// token logs the user in through the service so tests exercise real JWTs.
func (h *harness) token(user auth.User) string {
	result, err := h.server.auth.Login(context.Background(), auth.LoginRequest{
		Email:    user.Email,
		Password: "motdepasse",
	})
	if err != nil {
		panic(fmt.Sprintf("harness login: %v", err))
	}
	return result.Token
}

type fakeAuthRepo struct {
	usersByEmail map[string]auth.User
	usersByID    map[string]auth.User
	nextID       int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail: make(map[string]auth.User),
		usersByID:    make(map[string]auth.User),
		nextID:       1,
	}
}

func (f *fakeAuthRepo) put(user auth.User) {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
}

func (f *fakeAuthRepo) CreateUser(ctx context.Context, params auth.CreateUserParams) (auth.User, error) {
	if _, exists := f.usersByEmail[params.Email]; exists {
		return auth.User{}, auth.ErrDuplicateEmail
	}
	user := auth.User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	f.nextID++
	f.put(user)
	return user, nil
}

func (f *fakeAuthRepo) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAuthRepo) GetUserByID(ctx context.Context, userID string) (auth.User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAuthRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) (auth.User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	user.DisplayName = displayName
	f.put(user)
	return user, nil
}

type fakeZoneRepo struct {
	zones  map[string]zone.Zone
	nextID int
}

func newFakeZoneRepo() *fakeZoneRepo {
	return &fakeZoneRepo{zones: make(map[string]zone.Zone), nextID: 1}
}

func (f *fakeZoneRepo) Create(ctx context.Context, tx pgx.Tx, z zone.Zone) (zone.Zone, error) {
	if z.ID == "" {
		z.ID = fmt.Sprintf("zone-%d", f.nextID)
		f.nextID++
	}
	z.CreatedAt = fixedNow
	z.UpdatedAt = fixedNow
	f.zones[z.ID] = z
	return z, nil
}

func (f *fakeZoneRepo) Update(ctx context.Context, tx pgx.Tx, id string, params zone.UpdateParams) (zone.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return zone.Zone{}, zone.ErrNotFound
	}
	if params.Type != nil {
		z.Type = *params.Type
	}
	if params.Start != nil {
		z.Start = *params.Start
	}
	if params.End != nil {
		z.End = *params.End
	}
	if params.Description != nil {
		z.Description = *params.Description
	}
	if params.Geometry != nil {
		z.Geometry = params.Geometry
	}
	f.zones[id] = z
	return z, nil
}

func (f *fakeZoneRepo) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	if _, ok := f.zones[id]; !ok {
		return zone.ErrNotFound
	}
	delete(f.zones, id)
	return nil
}

func (f *fakeZoneRepo) Get(ctx context.Context, id string) (zone.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return zone.Zone{}, zone.ErrNotFound
	}
	return z, nil
}

func (f *fakeZoneRepo) ListCurrent(ctx context.Context, now time.Time) ([]zone.Zone, error) {
	zones := []zone.Zone{}
	for _, z := range f.zones {
		if z.End.After(now) {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

func (f *fakeZoneRepo) ListByOwner(ctx context.Context, userID string) ([]zone.Zone, error) {
	zones := []zone.Zone{}
	for _, z := range f.zones {
		if z.CreatedBy == userID {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

// fakeAdminRepo reads through the auth fake so both surfaces see the same
// accounts.
type fakeAdminRepo struct {
	users *fakeAuthRepo
}

func newFakeAdminRepo(users *fakeAuthRepo) *fakeAdminRepo {
	return &fakeAdminRepo{users: users}
}

func (f *fakeAdminRepo) GetUser(ctx context.Context, userID string) (auth.User, error) {
	user, ok := f.users.usersByID[userID]
	if !ok {
		return auth.User{}, admin.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAdminRepo) PendingHunters(ctx context.Context) ([]auth.User, error) {
	return f.listHunters(false), nil
}

func (f *fakeAdminRepo) CertifiedHunters(ctx context.Context) ([]auth.User, error) {
	return f.listHunters(true), nil
}

func (f *fakeAdminRepo) listHunters(certified bool) []auth.User {
	users := []auth.User{}
	for _, u := range f.users.usersByID {
		if u.Role == auth.RoleChasseur && u.Certified == certified {
			users = append(users, u)
		}
	}
	return users
}

func (f *fakeAdminRepo) SetCertification(ctx context.Context, tx pgx.Tx, userID string, certified bool, at time.Time) (auth.User, error) {
	user, ok := f.users.usersByID[userID]
	if !ok {
		return auth.User{}, admin.ErrUserNotFound
	}
	user.Certified = certified
	if certified {
		stamp := at
		user.CertifiedAt = &stamp
	}
	user.UpdatedAt = at
	f.users.put(user)
	return user, nil
}

func (f *fakeAdminRepo) Stats(ctx context.Context) (admin.Stats, error) {
	var s admin.Stats
	for _, u := range f.users.usersByID {
		s.TotalUsers++
		switch u.Role {
		case auth.RoleRandonneur:
			s.Randonneurs++
		case auth.RoleChasseur:
			s.Chasseurs++
			if u.Certified {
				s.CertifiedHunters++
			} else {
				s.PendingHunters++
			}
		case auth.RoleAdmin:
			s.Admins++
		}
	}
	return s, nil
}

type fakePool struct{}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

type fakeTx struct{}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error   { return nil }
func (f *fakeTx) Rollback(context.Context) error { return nil }

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
