package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/feedlens/feedlens/internal/report"
	"github.com/feedlens/feedlens/internal/storage"
)

// reportFetchLimit caps how much feedback a report covers.
const reportFetchLimit = 5000

func handleProductReport(deps Deps) http.HandlerFunc {
	return reportHandler(deps, "product_report", func(records []storage.FeedbackRecord) ([]byte, error) {
		return report.Product(records)
	}, func(r *http.Request, rec storage.FeedbackRecord) bool {
		filter := r.URL.Query().Get("product")
		return filter == "" || rec.ProductID == filter
	})
}

func handleCampaignReport(deps Deps) http.HandlerFunc {
	return reportHandler(deps, "campaign_report", func(records []storage.FeedbackRecord) ([]byte, error) {
		return report.Campaign(records)
	}, func(r *http.Request, rec storage.FeedbackRecord) bool {
		filter := r.URL.Query().Get("campaign")
		return filter == "" || rec.CampaignID == filter
	})
}

func reportHandler(deps Deps, action string, render func([]storage.FeedbackRecord) ([]byte, error), keep func(*http.Request, storage.FeedbackRecord) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ListFeedback(reportFetchLimit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading feedback: %v", err)
			return
		}

		filtered := records[:0]
		for _, rec := range records {
			if keep(r, rec) {
				filtered = append(filtered, rec)
			}
		}

		pdf, err := render(filtered)
		if errors.Is(err, report.ErrNoData) {
			httpError(w, http.StatusNotFound, "not_found", "no feedback matches the report filter")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "rendering report: %v", err)
			return
		}

		if user, ok := requestUser(r); ok {
			if err := deps.Store.LogActivity(user.ID, action, r.URL.RawQuery); err != nil {
				slog.Warn("recording report activity failed", "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename="+action+".pdf")
		w.Write(pdf)
	}
}
