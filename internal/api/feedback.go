package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/feedlens/feedlens/internal/auth"
	"github.com/feedlens/feedlens/internal/storage"
)

type feedbackItem struct {
	ID         int64   `json:"id"`
	ProductID  string  `json:"product_id,omitempty"`
	Platform   string  `json:"platform,omitempty"`
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Date       string  `json:"date,omitempty"`
	CampaignID string  `json:"campaign_id,omitempty"`
}

func toFeedbackItem(rec storage.FeedbackRecord) feedbackItem {
	item := feedbackItem{
		ID:         rec.ID,
		ProductID:  rec.ProductID,
		Platform:   rec.Platform,
		Text:       rec.Text,
		Sentiment:  rec.Sentiment,
		Confidence: rec.Confidence,
		CampaignID: rec.CampaignID,
	}
	if !rec.Date.IsZero() {
		item.Date = rec.Date.Format(time.RFC3339)
	}
	return item
}

func handleListFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 500)

		records, err := deps.Store.ListFeedback(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing feedback: %v", err)
			return
		}

		items := make([]feedbackItem, len(records))
		for i, rec := range records {
			items[i] = toFeedbackItem(rec)
		}
		writeJSON(w, items)
	}
}

type feedbackStatsResponse struct {
	Total      int                              `json:"total"`
	Sentiments map[string]int                   `json:"sentiments"`
	Platforms  map[string]int                   `json:"platforms"`
	Cells      []storage.SentimentPlatformCount `json:"cells"`
}

func handleFeedbackStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := feedbackStats(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "computing feedback stats: %v", err)
			return
		}
		writeJSON(w, stats)
	}
}

// feedbackStats is shared between the HTTP handler and the MCP tool.
func feedbackStats(store *storage.Store) (feedbackStatsResponse, error) {
	cells, err := store.FeedbackStats()
	if err != nil {
		return feedbackStatsResponse{}, err
	}

	resp := feedbackStatsResponse{
		Sentiments: make(map[string]int),
		Platforms:  make(map[string]int),
		Cells:      cells,
	}
	for _, c := range cells {
		resp.Total += c.Count
		sentiment := c.Sentiment
		if sentiment == "" {
			sentiment = "unlabeled"
		}
		platform := c.Platform
		if platform == "" {
			platform = "unknown"
		}
		resp.Sentiments[sentiment] += c.Count
		resp.Platforms[platform] += c.Count
	}
	return resp, nil
}

func handleActivity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 200)

		entries, err := deps.Store.RecentActivity(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing activity: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.ActivityEntry{}
		}
		writeJSON(w, entries)
	}
}

func handleSystemHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 200)

		entries, err := deps.Store.RecentHealth(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing health metrics: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.HealthEntry{}
		}
		writeJSON(w, entries)
	}
}

type userItem struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func handleListUsers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Store.ListUsers()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing users: %v", err)
			return
		}

		items := make([]userItem, len(users))
		for i, u := range users {
			items[i] = userItem{
				ID:        u.ID,
				Username:  u.Username,
				Email:     u.Email,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
			}
		}
		writeJSON(w, items)
	}
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func handleCreateUser(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "username and password are required")
			return
		}
		if req.Role == "" {
			req.Role = "user"
		}
		if !auth.ValidRole(req.Role) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown role %q", req.Role)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "hashing password: %v", err)
			return
		}
		id, err := deps.Store.CreateUser(storage.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         req.Role,
		})
		if err != nil {
			if isUniqueViolation(err) {
				httpError(w, http.StatusConflict, "invalid_request_error", "username %q already exists", req.Username)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "creating user: %v", err)
			return
		}

		if actor, ok := requestUser(r); ok {
			_ = deps.Store.LogActivity(actor.ID, "create_user", req.Username)
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"id": id, "username": req.Username, "role": req.Role})
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
