package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User is a dashboard account. Role drives the permission set (see
// internal/auth).
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// FeedbackRecord is one piece of customer feedback. Immutable once
// persisted except via bulk re-import. Optional fields stay empty/zero
// when unknown.
type FeedbackRecord struct {
	ID         int64
	UserID     int64 // uploader, 0 when unknown
	ProductID  string
	Platform   string
	Text       string
	Sentiment  string
	Confidence float64 // 0 when not scored
	Date       time.Time
	CampaignID string
}

// SentimentPlatformCount is one cell of the sentiment × platform
// grouping used by the dashboard charts.
type SentimentPlatformCount struct {
	Sentiment string
	Platform  string
	Count     int
}

// ActivityEntry is one audit-log row joined with its username.
type ActivityEntry struct {
	Username  string
	Action    string
	Details   string
	Timestamp time.Time
}

// HealthEntry is one recorded system-health metric.
type HealthEntry struct {
	MetricName  string
	MetricValue float64
	Status      string
	Timestamp   time.Time
}

// Session is a bearer login session.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}
