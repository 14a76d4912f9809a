// Package api exposes the feedback analytics over HTTP and MCP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feedlens/feedlens/internal/auth"
	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/model"
	"github.com/feedlens/feedlens/internal/storage"
)

const maxUploadBodySize = 10 << 20 // 10MB
const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the collaborators the HTTP layer wires together.
type Deps struct {
	Store    *storage.Store
	Auth     *auth.Manager
	Datasets *dataset.Store
	Models   *model.Service
}

// NewHandler builds the REST API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/login", handleLogin(deps))

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(deps.Auth))

		r.Post("/logout", handleLogout(deps))
		r.Post("/predict", handlePredict(deps))

		r.With(RequirePermission(auth.PermManageUsers)).Group(func(r chi.Router) {
			r.Post("/datasets", handleUploadDataset(deps))
			r.Get("/datasets", handleListDatasets(deps))
			r.Post("/train", handleTrain(deps))
			r.Post("/feedback/import", handleImportPDF(deps))
			r.Get("/activity", handleActivity(deps))
			r.Get("/system-health", handleSystemHealth(deps))
			r.Get("/users", handleListUsers(deps))
			r.Post("/users", handleCreateUser(deps))
		})

		r.With(RequireAnyPermission(auth.PermViewProductSentiment, auth.PermViewBrandSentiment)).Group(func(r chi.Router) {
			r.Get("/feedback", handleListFeedback(deps))
			r.Get("/feedback/stats", handleFeedbackStats(deps))
		})

		r.With(RequirePermission(auth.PermExportData)).Group(func(r chi.Router) {
			r.Get("/reports/product", handleProductReport(deps))
			r.Get("/reports/campaign", handleCampaignReport(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
