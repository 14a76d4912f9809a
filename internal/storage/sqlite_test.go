package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApply(t *testing.T) {
	s := openTestStore(t)

	// A second migrate run must be a no-op, not an error.
	if err := s.migrate(); err != nil {
		t.Fatalf("re-running migrations: %v", err)
	}
}

func TestUsers(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateUser(User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "$2a$10$fakehash",
		Role:         "administrator",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if id == 0 {
		t.Error("CreateUser returned id 0")
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("getting user: %v", err)
	}
	if u.Role != "administrator" || u.Email != "admin@example.com" {
		t.Errorf("got user %+v", u)
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	byID, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("getting user by id: %v", err)
	}
	if byID.Username != "admin" {
		t.Errorf("GetUserByID username = %q", byID.Username)
	}

	if _, err := s.GetUserByUsername("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}

	if _, err := s.CreateUser(User{Username: "admin", Email: "other@example.com", PasswordHash: "x", Role: "user"}); err == nil {
		t.Error("duplicate username insert should fail")
	}

	n, err := s.CountUsers()
	if err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers() = %d, want 1", n)
	}
}

func TestFeedbackBatchAndStats(t *testing.T) {
	s := openTestStore(t)

	batch := []FeedbackRecord{
		{Text: "great product", Sentiment: "positive", Platform: "web", Date: time.Now()},
		{Text: "terrible support", Sentiment: "negative", Platform: "web"},
		{Text: "love it", Sentiment: "positive", Platform: "app"},
		{Text: "love it too", Sentiment: "positive", Platform: "web"},
	}
	if err := s.InsertFeedbackBatch(batch); err != nil {
		t.Fatalf("inserting batch: %v", err)
	}

	n, err := s.CountFeedback()
	if err != nil {
		t.Fatalf("counting feedback: %v", err)
	}
	if n != 4 {
		t.Errorf("CountFeedback() = %d, want 4", n)
	}

	list, err := s.ListFeedback(2)
	if err != nil {
		t.Fatalf("listing feedback: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d rows, want 2", len(list))
	}
	if list[0].Text != "love it too" {
		t.Errorf("newest first: got %q", list[0].Text)
	}

	stats, err := s.FeedbackStats()
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}
	counts := make(map[string]int)
	for _, c := range stats {
		counts[c.Sentiment+"/"+c.Platform] = c.Count
	}
	if counts["positive/web"] != 2 || counts["positive/app"] != 1 || counts["negative/web"] != 1 {
		t.Errorf("unexpected stats: %v", counts)
	}
}

func TestInsertFeedbackBatch_Empty(t *testing.T) {
	s := openTestStore(t)
	if err := s.InsertFeedbackBatch(nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

func TestActivityLog(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateUser(User{Username: "pm", Email: "pm@example.com", PasswordHash: "x", Role: "product_manager"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	if err := s.LogActivity(id, "dataset_upload", "reviews.csv"); err != nil {
		t.Fatalf("logging activity: %v", err)
	}
	if err := s.LogActivity(id, "train_model", "reviews.csv"); err != nil {
		t.Fatalf("logging activity: %v", err)
	}

	entries, err := s.RecentActivity(10)
	if err != nil {
		t.Fatalf("reading activity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Action != "train_model" || entries[0].Username != "pm" {
		t.Errorf("newest first with username: got %+v", entries[0])
	}
}

func TestSystemHealth(t *testing.T) {
	s := openTestStore(t)

	if err := s.LogSystemHealth("model_accuracy", 0.91, "good"); err != nil {
		t.Fatalf("logging health: %v", err)
	}
	entries, err := s.RecentHealth(5)
	if err != nil {
		t.Fatalf("reading health: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].MetricName != "model_accuracy" || entries[0].MetricValue != 0.91 {
		t.Errorf("got %+v", entries[0])
	}
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateUser(User{Username: "mkt", Email: "mkt@example.com", PasswordHash: "x", Role: "marketing"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	live := Session{Token: "tok-live", UserID: id, ExpiresAt: time.Now().Add(time.Hour)}
	stale := Session{Token: "tok-stale", UserID: id, ExpiresAt: time.Now().Add(-time.Hour)}
	for _, sess := range []Session{live, stale} {
		if err := s.CreateSession(sess); err != nil {
			t.Fatalf("creating session: %v", err)
		}
	}

	got, err := s.GetSession("tok-live")
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if got.UserID != id {
		t.Errorf("session user = %d, want %d", got.UserID, id)
	}

	dropped, err := s.DeleteExpiredSessions()
	if err != nil {
		t.Fatalf("deleting expired: %v", err)
	}
	if dropped != 1 {
		t.Errorf("dropped %d sessions, want 1", dropped)
	}
	if _, err := s.GetSession("tok-stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale session still present: %v", err)
	}

	if err := s.DeleteSession("tok-live"); err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	if _, err := s.GetSession("tok-live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got error %v, want ErrNotFound", err)
	}
}
