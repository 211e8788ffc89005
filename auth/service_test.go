package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:       "marc@example.com",
		Password:    "supersafe",
		DisplayName: "Marc Chasseur",
		Role:        RoleChasseur,
	}

	ctx := context.Background()
	user, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if user.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, user.Email)
	}
	if user.Role != RoleChasseur {
		t.Fatalf("register: expected role %s got %s", RoleChasseur, user.Role)
	}
	if user.Certified {
		t.Fatal("register: new hunters must start uncertified")
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, resp.User.ID)
	}

	tokenUserID, tokenRole, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenUserID != user.ID {
		t.Fatalf("verify token: expected %q got %q", user.ID, tokenUserID)
	}
	if tokenRole != RoleChasseur {
		t.Fatalf("verify token: expected role %s got %s", RoleChasseur, tokenRole)
	}
}

func TestService_RegisterDefaultRole(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "claire@example.com",
		Password:    "strongpassword",
		DisplayName: "Claire Randonneuse",
	})
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if user.Role != RoleRandonneur {
		t.Fatalf("expected default role %s got %s", RoleRandonneur, user.Role)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "marc@example.com",
		Password:    "short",
		DisplayName: "Marc",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "",
		Password:    "strongpassword",
		DisplayName: "",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "sneaky@example.com",
		Password:    "strongpassword",
		DisplayName: "Sneaky",
		Role:        RoleAdmin,
	}); !errors.Is(err, ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed for admin signup, got %v", err)
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:       "marc@example.com",
		Password:    "strongpassword",
		DisplayName: "Marc",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_LoginThrottle(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := LoginRequest{Email: "burst@example.com", Password: "wrong"}
	var last error
	for i := 0; i < 10; i++ {
		_, last = svc.Login(context.Background(), req)
	}
	if !errors.Is(last, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts after burst, got %v", last)
	}

	// Other accounts are unaffected.
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "other@example.com", Password: "x"}); errors.Is(err, ErrTooManyAttempts) {
		t.Fatal("throttle must be scoped per email")
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrInvalidCredentials, "Email ou mot de passe incorrect"},
		{ErrTooManyAttempts, "Trop de tentatives. Réessayez plus tard"},
		{ErrDuplicateEmail, "Un compte existe déjà avec cet email"},
		{errors.New("boom"), "Erreur de connexion. Vérifiez vos identifiants"},
	}
	for _, tc := range cases {
		if got := ErrorMessage(tc.err); got != tc.want {
			t.Errorf("ErrorMessage(%v) = %q want %q", tc.err, got, tc.want)
		}
	}
}

type fakeRepository struct {
	usersByEmail map[string]User
	usersByID    map[string]User
	nextID       int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByEmail: make(map[string]User),
		usersByID:    make(map[string]User),
		nextID:       1,
	}
}

func (f *fakeRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if _, exists := f.usersByEmail[strings.ToLower(params.Email)]; exists {
		return User{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	role := params.Role
	if role == "" {
		role = RoleRandonneur
	}

	user := User{
		ID:           id,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	f.usersByEmail[strings.ToLower(user.Email)] = user
	f.usersByID[user.ID] = user

	return user, nil
}

func (f *fakeRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByID(ctx context.Context, userID string) (User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) UpdateDisplayName(ctx context.Context, userID, displayName string) (User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.DisplayName = displayName
	user.UpdatedAt = time.Now().UTC()
	f.usersByID[userID] = user
	f.usersByEmail[strings.ToLower(user.Email)] = user
	return user, nil
}
