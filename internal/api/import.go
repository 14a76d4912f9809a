package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/feedlens/feedlens/internal/ingest"
	"github.com/feedlens/feedlens/internal/model"
)

type importResponse struct {
	Imported int `json:"imported"`
	Labeled  int `json:"labeled"`
}

// handleImportPDF accepts a PDF upload and turns each non-empty line
// of its text into a feedback entry. Lines are labeled with the
// current model when one has been trained, otherwise stored unlabeled.
func handleImportPDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
		defer r.Body.Close()

		if err := r.ParseMultipartForm(maxUploadBodySize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart form: %v", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "file field is required")
			return
		}
		defer file.Close()

		// The PDF reader needs a seekable file on disk.
		tmp, err := os.CreateTemp("", "feedlens-import-*.pdf")
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "staging upload: %v", err)
			return
		}
		defer os.Remove(tmp.Name())
		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			httpError(w, http.StatusInternalServerError, "api_error", "staging upload: %v", err)
			return
		}
		if err := tmp.Close(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "staging upload: %v", err)
			return
		}

		records, err := ingest.FromPDF(tmp.Name())
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "not a readable PDF: %v", err)
			return
		}
		if len(records) == 0 {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "no text found in PDF")
			return
		}

		labeled := 0
		m, err := deps.Models.Current()
		if err == nil {
			for i := range records {
				pred := m.Predict(records[i].Text)
				records[i].Sentiment = pred.Label
				records[i].Confidence = pred.Confidence
				labeled++
			}
		} else if !errors.Is(err, model.ErrNotLoaded) {
			httpError(w, http.StatusInternalServerError, "api_error", "loading model: %v", err)
			return
		}

		user, ok := requestUser(r)
		if ok {
			for i := range records {
				records[i].UserID = user.ID
			}
		}
		if err := deps.Store.InsertFeedbackBatch(records); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "storing feedback: %v", err)
			return
		}

		if ok {
			if err := deps.Store.LogActivity(user.ID, "import_pdf", filepath.Base(header.Filename)); err != nil {
				slog.Warn("recording import activity failed", "error", err)
			}
		}
		slog.Info("imported PDF feedback", "file", filepath.Base(header.Filename), "records", len(records), "labeled", labeled)

		writeJSON(w, importResponse{Imported: len(records), Labeled: labeled})
	}
}
