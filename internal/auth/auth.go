// Package auth handles password verification, login sessions, and the
// role → permission mapping that gates dashboard features.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/feedlens/feedlens/internal/storage"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password; callers must not distinguish the two.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrSessionExpired is returned when a presented token exists but is
// past its expiry.
var ErrSessionExpired = errors.New("session expired")

// Permissions by role. Unknown roles fall back to the plain-user set.
const (
	PermManageUsers          = "manage_users"
	PermViewProductSentiment = "view_product_sentiment"
	PermViewBrandSentiment   = "view_brand_sentiment"
	PermExportData           = "export_data"
	PermViewDashboard        = "view_dashboard"
)

var rolePermissions = map[string][]string{
	"administrator":   {PermManageUsers, PermViewProductSentiment, PermViewBrandSentiment, PermExportData},
	"product_manager": {PermViewProductSentiment, PermExportData},
	"marketing":       {PermViewBrandSentiment, PermExportData},
	"user":            {PermViewDashboard},
}

// PermissionsForRole returns the permission set for a role.
func PermissionsForRole(role string) []string {
	if perms, ok := rolePermissions[role]; ok {
		return perms
	}
	return rolePermissions["user"]
}

// HasPermission reports whether a role grants the permission.
func HasPermission(role, permission string) bool {
	for _, p := range PermissionsForRole(role) {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Manager authenticates users and manages their sessions against the
// store.
type Manager struct {
	store      *storage.Store
	sessionTTL time.Duration
}

// NewManager returns a Manager issuing sessions with the given TTL.
func NewManager(store *storage.Store, sessionTTL time.Duration) *Manager {
	return &Manager{store: store, sessionTTL: sessionTTL}
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Login verifies credentials and issues a new session token.
func (m *Manager) Login(username, password string) (storage.User, string, error) {
	user, err := m.store.GetUserByUsername(username)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return storage.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return storage.User{}, "", ErrInvalidCredentials
	}

	token := uuid.New().String()
	sess := storage.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(m.sessionTTL),
	}
	if err := m.store.CreateSession(sess); err != nil {
		return storage.User{}, "", fmt.Errorf("creating session: %w", err)
	}
	return user, token, nil
}

// Validate resolves a session token to its user. Expired sessions are
// deleted on sight and reported as ErrSessionExpired.
func (m *Manager) Validate(token string) (storage.User, error) {
	sess, err := m.store.GetSession(token)
	if err != nil {
		return storage.User{}, err
	}
	if time.Now().After(sess.ExpiresAt) {
		if err := m.store.DeleteSession(token); err != nil {
			return storage.User{}, fmt.Errorf("deleting expired session: %w", err)
		}
		return storage.User{}, ErrSessionExpired
	}
	return m.store.GetUserByID(sess.UserID)
}

// Logout removes the session for token.
func (m *Manager) Logout(token string) error {
	return m.store.DeleteSession(token)
}

// SeedAdmin creates the bootstrap administrator account when no users
// exist yet. The password comes from configuration; an empty password
// with an empty user table is a startup error rather than an insecure
// default.
func (m *Manager) SeedAdmin(username, email, password string) error {
	n, err := m.store.CountUsers()
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return errors.New("no users exist and no bootstrap admin password configured")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = m.store.CreateUser(storage.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         "administrator",
	})
	if err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}
	return nil
}
