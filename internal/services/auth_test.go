package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vbabrew-backend/internal/middleware"
	"vbabrew-backend/internal/models"
)

// fakeUserStore keeps users in a map keyed by username.
type fakeUserStore struct {
	byUsername map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byUsername: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	f.byUsername[user.Username] = user
	return nil
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	for _, u := range f.byUsername {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestAuthService() (*AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	return NewAuthService(store, middleware.NewJWTAuth("test-secret")), store
}

func TestRegisterThenLogin_SameUser(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Error("Expected a token from register")
	}

	loggedIn, _, err := svc.Login(ctx, models.LoginRequest{Username: "macrofan", Password: "hunter42x"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != registered.ID {
		t.Errorf("Expected same user id, got %s and %s", registered.ID, loggedIn.ID)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		password  string
		wantField string
	}{
		{"username too short", "ab", "hunter42x", "username"},
		{"username too long", "abcdefghijklmnopqrstuvwxyz12345", "hunter42x", "username"},
		{"password too short", "macrofan", "a1", "password"},
		{"password without digit", "macrofan", "passwordonly", "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, models.RegisterRequest{Username: tc.username, Password: tc.password})
			valErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, ok := valErr.Fields[tc.wantField]; !ok {
				t.Errorf("Expected field error on %q, got %v", tc.wantField, valErr.Fields)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"}); err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	_, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "other42pass"})
	if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %v", err)
	}
}

func TestRegister_NeverStoresPlaintext(t *testing.T) {
	svc, store := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), models.RegisterRequest{Username: "macrofan", Password: "hunter42x"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	stored := store.byUsername["macrofan"]
	if stored.PasswordHash == "hunter42x" {
		t.Error("Plaintext password was persisted")
	}
	if stored.PasswordHash == "" {
		t.Error("Expected a password hash")
	}
}

func TestChangePassword_RotatesHash(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "hunter42x", "newpass99"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, models.LoginRequest{Username: "macrofan", Password: "hunter42x"}); err == nil {
		t.Error("Old password must no longer log in")
	}
	if _, _, err := svc.Login(ctx, models.LoginRequest{Username: "macrofan", Password: "newpass99"}); err != nil {
		t.Errorf("New password must log in, got %v", err)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err = svc.ChangePassword(ctx, user.ID, "wrong42pass", "newpass99")
	if _, ok := err.(*UnauthorizedError); !ok {
		t.Errorf("Expected UnauthorizedError, got %v", err)
	}
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err = svc.ChangePassword(ctx, user.ID, "hunter42x", "short")
	valErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := valErr.Fields["new_password"]; !ok {
		t.Errorf("Expected field error on new_password, got %v", valErr.Fields)
	}
}

func TestLogin_IndistinguishableFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, models.RegisterRequest{Username: "macrofan", Password: "hunter42x"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, _, wrongPass := svc.Login(ctx, models.LoginRequest{Username: "macrofan", Password: "wrong42pass"})
	_, _, noUser := svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: "hunter42x"})

	wp, ok1 := wrongPass.(*UnauthorizedError)
	nu, ok2 := noUser.(*UnauthorizedError)
	if !ok1 || !ok2 {
		t.Fatalf("Expected UnauthorizedError for both, got %v and %v", wrongPass, noUser)
	}
	if wp.Message != nu.Message {
		t.Errorf("Error shapes differ: %q vs %q", wp.Message, nu.Message)
	}
}
