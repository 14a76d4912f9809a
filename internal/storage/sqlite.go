// Package storage persists users, feedback, activity and system-health
// logs in SQLite. The schema lives in embedded migrations applied on
// open; timestamps are stored as RFC3339 text.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for users, feedback,
// sessions, and the activity/health logs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "feedlens.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that
// haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Users ---

// CreateUser inserts a user and returns its assigned id.
func (s *Store) CreateUser(u User) (int64, error) {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO users (username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername returns the named user, or ErrNotFound.
func (s *Store) GetUserByUsername(username string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(`
		SELECT user_id, username, email, password_hash, role, created_at
		FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	u.CreatedAt = t
	return u, nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`
		SELECT user_id, username, email, password_hash, role, created_at
		FROM users ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		u.CreatedAt = t
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total user count.
func (s *Store) CountUsers() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// --- Feedback ---

// InsertFeedbackBatch inserts all rows in one transaction; either the
// whole batch lands or none of it does.
func (s *Store) InsertFeedbackBatch(records []FeedbackRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO feedback (user_id, product_id, platform, text, sentiment, confidence, date, campaign_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(r.UserID, r.ProductID, r.Platform, r.Text, r.Sentiment, r.Confidence, date, r.CampaignID); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting feedback row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListFeedback returns the most recent feedback rows, newest first.
func (s *Store) ListFeedback(limit int) ([]FeedbackRecord, error) {
	rows, err := s.db.Query(`
		SELECT feedback_id, user_id, product_id, platform, text, sentiment, confidence, date, campaign_id
		FROM feedback ORDER BY feedback_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FeedbackRecord
	for rows.Next() {
		var r FeedbackRecord
		var date string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Platform, &r.Text, &r.Sentiment, &r.Confidence, &date, &r.CampaignID); err != nil {
			return nil, err
		}
		if date != "" {
			t, err := time.Parse(time.RFC3339, date)
			if err != nil {
				return nil, fmt.Errorf("parsing feedback date: %w", err)
			}
			r.Date = t
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// FeedbackStats returns counts grouped by sentiment × platform,
// largest groups first.
func (s *Store) FeedbackStats() ([]SentimentPlatformCount, error) {
	rows, err := s.db.Query(`
		SELECT sentiment, platform, COUNT(*)
		FROM feedback
		GROUP BY sentiment, platform
		ORDER BY COUNT(*) DESC, sentiment ASC, platform ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SentimentPlatformCount
	for rows.Next() {
		var c SentimentPlatformCount
		if err := rows.Scan(&c.Sentiment, &c.Platform, &c.Count); err != nil {
			return nil, err
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

// CountFeedback returns the total feedback row count.
func (s *Store) CountFeedback() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&n)
	return n, err
}

// --- Activity log ---

// LogActivity records one user action. Call sites treat failures as
// non-fatal.
func (s *Store) LogActivity(userID int64, action, details string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_activity (user_id, action, details, timestamp)
		VALUES (?, ?, ?, ?)`,
		userID, action, details, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RecentActivity returns the latest activity entries joined with their
// usernames, newest first.
func (s *Store) RecentActivity(limit int) ([]ActivityEntry, error) {
	rows, err := s.db.Query(`
		SELECT u.username, ua.action, ua.details, ua.timestamp
		FROM user_activity ua
		JOIN users u ON ua.user_id = u.user_id
		ORDER BY ua.activity_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var ts string
		if err := rows.Scan(&e.Username, &e.Action, &e.Details, &ts); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing activity timestamp: %w", err)
		}
		e.Timestamp = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- System health ---

// LogSystemHealth records one metric observation.
func (s *Store) LogSystemHealth(metricName string, value float64, status string) error {
	_, err := s.db.Exec(`
		INSERT INTO system_health (metric_name, metric_value, status, timestamp)
		VALUES (?, ?, ?, ?)`,
		metricName, value, status, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RecentHealth returns the latest health entries, newest first.
func (s *Store) RecentHealth(limit int) ([]HealthEntry, error) {
	rows, err := s.db.Query(`
		SELECT metric_name, metric_value, status, timestamp
		FROM system_health ORDER BY health_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HealthEntry
	for rows.Next() {
		var e HealthEntry
		var ts string
		if err := rows.Scan(&e.MetricName, &e.MetricValue, &e.Status, &ts); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing health timestamp: %w", err)
		}
		e.Timestamp = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Sessions ---

// CreateSession persists a login session.
func (s *Store) CreateSession(sess Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetSession returns the session for token, or ErrNotFound. Expiry is
// the caller's check: expired sessions are still returned.
func (s *Store) GetSession(token string) (Session, error) {
	var sess Session
	var expiresAt string
	err := s.db.QueryRow(`
		SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &sess.UserID, &expiresAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("parsing expires_at: %w", err)
	}
	sess.ExpiresAt = t
	return sess, nil
}

// DeleteSession removes the session for token; deleting an unknown
// token is not an error.
func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions removes every session past its expiry and
// returns how many were dropped.
func (s *Store) DeleteExpiredSessions() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetUserByID returns the user with the given id, or ErrNotFound.
func (s *Store) GetUserByID(id int64) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(`
		SELECT user_id, username, email, password_hash, role, created_at
		FROM users WHERE user_id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	u.CreatedAt = t
	return u, nil
}
