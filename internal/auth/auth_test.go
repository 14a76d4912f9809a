package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/feedlens/feedlens/internal/storage"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewManager(store, ttl), store
}

func createUser(t *testing.T, store *storage.Store, username, password, role string) storage.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := storage.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	id, err := store.CreateUser(u)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	u.ID = id
	return u
}

func TestLoginAndValidate(t *testing.T) {
	m, store := newTestManager(t, time.Hour)
	createUser(t, store, "ana", "s3cret", "administrator")

	user, token, err := m.Login("ana", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if user.Username != "ana" {
		t.Fatalf("unexpected user %q", user.Username)
	}

	got, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("validate returned user %d, want %d", got.ID, user.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m, store := newTestManager(t, time.Hour)
	createUser(t, store, "ana", "s3cret", "user")

	if _, _, err := m.Login("ana", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := m.Login("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateExpiredSession(t *testing.T) {
	m, store := newTestManager(t, -time.Minute)
	createUser(t, store, "ana", "s3cret", "user")

	_, token, err := m.Login("ana", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}
	// The expired session is gone now.
	if _, err := store.GetSession(token); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired session still present: %v", err)
	}
}

func TestLogout(t *testing.T) {
	m, store := newTestManager(t, time.Hour)
	createUser(t, store, "ana", "s3cret", "user")

	_, token, err := m.Login("ana", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	m, store := newTestManager(t, time.Hour)

	if err := m.SeedAdmin("admin", "admin@example.com", ""); err == nil {
		t.Fatal("expected error for empty bootstrap password")
	}
	if err := m.SeedAdmin("admin", "admin@example.com", "bootstrap"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	user, err := store.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("fetching admin: %v", err)
	}
	if user.Role != "administrator" {
		t.Fatalf("role = %q, want administrator", user.Role)
	}

	// Idempotent once users exist, even without a password.
	if err := m.SeedAdmin("admin", "admin@example.com", ""); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n, _ := store.CountUsers(); n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{"administrator", PermManageUsers, true},
		{"administrator", PermExportData, true},
		{"product_manager", PermViewProductSentiment, true},
		{"product_manager", PermViewBrandSentiment, false},
		{"marketing", PermViewBrandSentiment, true},
		{"marketing", PermManageUsers, false},
		{"user", PermViewDashboard, true},
		{"user", PermExportData, false},
		{"intern", PermViewDashboard, true}, // unknown role gets the user set
		{"intern", PermManageUsers, false},
	}
	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}
