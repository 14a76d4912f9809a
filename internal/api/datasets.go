package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/infer"
	"github.com/feedlens/feedlens/internal/ingest"
	"github.com/feedlens/feedlens/internal/model"
)

type columnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type datasetPreview struct {
	Name            string       `json:"name"`
	Size            int64        `json:"size"`
	Rows            int          `json:"rows"`
	Columns         []columnInfo `json:"columns"`
	TextColumn      string       `json:"text_column,omitempty"`
	SentimentColumn string       `json:"sentiment_column,omitempty"`
}

func handleUploadDataset(deps Deps) http.HandlerFunc {
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

		info, err := deps.Datasets.Save(header.Filename, file)
		if errors.Is(err, dataset.ErrInvalidName) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "dataset name must be a plain .csv filename")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "storing dataset: %v", err)
			return
		}

		preview, err := previewDataset(deps, info.Name, info.Size)
		if errors.Is(err, dataset.ErrMalformedInput) {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "dataset is not valid CSV: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading dataset: %v", err)
			return
		}

		if user, ok := requestUser(r); ok {
			if err := deps.Store.LogActivity(user.ID, "upload_dataset", info.Name); err != nil {
				slog.Warn("recording upload activity failed", "error", err)
			}
		}

		writeJSON(w, preview)
	}
}

func previewDataset(deps Deps, name string, size int64) (datasetPreview, error) {
	rc, err := deps.Datasets.Open(name)
	if err != nil {
		return datasetPreview{}, err
	}
	defer rc.Close()

	d, err := dataset.FromCSV(rc)
	if err != nil {
		return datasetPreview{}, err
	}
	guess := infer.GuessColumns(d)

	preview := datasetPreview{
		Name:            name,
		Size:            size,
		Rows:            d.NumRows(),
		TextColumn:      guess.TextColumn,
		SentimentColumn: guess.SentimentColumn,
	}
	for _, col := range d.Columns() {
		preview.Columns = append(preview.Columns, columnInfo{Name: col.Name, Kind: col.Kind.String()})
	}
	return preview, nil
}

func handleListDatasets(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos, err := deps.Datasets.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing datasets: %v", err)
			return
		}
		if infos == nil {
			infos = []dataset.FileInfo{}
		}
		writeJSON(w, infos)
	}
}

type trainRequest struct {
	Dataset         string `json:"dataset"`
	TextColumn      string `json:"text_column"`
	SentimentColumn string `json:"sentiment_column"`
}

type trainResponse struct {
	Accuracy   float64              `json:"accuracy"`
	Classes    []model.ClassMetrics `json:"classes"`
	TrainRows  int                  `json:"train_rows"`
	TestRows   int                  `json:"test_rows"`
	Dropped    int                  `json:"dropped"`
	Ingested   int                  `json:"ingested"`
	TrainedAt  time.Time            `json:"trained_at"`
	TextColumn string               `json:"text_column"`
}

// handleTrain runs the full pipeline synchronously: parse, infer
// columns, fit, persist artifacts, ingest the labeled rows as feedback
// records, and record audit plus health metrics.
func handleTrain(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req trainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Dataset == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "dataset is required")
			return
		}

		rc, err := deps.Datasets.Open(req.Dataset)
		if errors.Is(err, dataset.ErrInvalidName) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "dataset name must be a plain .csv filename")
			return
		}
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "dataset %q not found", req.Dataset)
			return
		}
		defer rc.Close()

		d, err := dataset.FromCSV(rc)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "dataset is not valid CSV: %v", err)
			return
		}

		textCol, sentimentCol := req.TextColumn, req.SentimentColumn
		if textCol == "" || sentimentCol == "" {
			guess := infer.GuessColumns(d)
			if textCol == "" {
				textCol = guess.TextColumn
			}
			if sentimentCol == "" {
				sentimentCol = guess.SentimentColumn
			}
		}
		if textCol == "" {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "could not determine a text column; pass text_column explicitly")
			return
		}
		if sentimentCol == "" {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "could not determine a sentiment column; pass sentiment_column explicitly")
			return
		}

		trained, eval, err := model.Train(d, textCol, sentimentCol, model.TrainerOptions{})
		if errors.Is(err, dataset.ErrColumnNotFound) {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "training failed: %v", err)
			return
		}
		if errors.Is(err, model.ErrInsufficientData) {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "dataset too small or imbalanced: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "training failed: %v", err)
			return
		}

		if _, err := deps.Models.Replace(trained); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "persisting model: %v", err)
			return
		}

		records, err := ingest.Records(d, textCol, sentimentCol)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "mapping feedback records: %v", err)
			return
		}
		user, _ := requestUser(r)
		for i := range records {
			records[i].UserID = user.ID
		}
		if err := deps.Store.InsertFeedbackBatch(records); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving feedback records: %v", err)
			return
		}

		if err := deps.Store.LogActivity(user.ID, "train_model", req.Dataset); err != nil {
			slog.Warn("recording train activity failed", "error", err)
		}
		status := "ok"
		if eval.Accuracy < 0.7 {
			status = "degraded"
		}
		if err := deps.Store.LogSystemHealth("model_accuracy", eval.Accuracy, status); err != nil {
			slog.Warn("recording model_accuracy metric failed", "error", err)
		}
		if err := deps.Store.LogSystemHealth("dataset_size", float64(len(records)), "ok"); err != nil {
			slog.Warn("recording dataset_size metric failed", "error", err)
		}

		slog.Info("model trained",
			"dataset", req.Dataset,
			"accuracy", eval.Accuracy,
			"train_rows", eval.TrainRows,
			"test_rows", eval.TestRows,
		)

		writeJSON(w, trainResponse{
			Accuracy:   eval.Accuracy,
			Classes:    eval.Classes,
			TrainRows:  eval.TrainRows,
			TestRows:   eval.TestRows,
			Dropped:    eval.Dropped,
			Ingested:   len(records),
			TrainedAt:  trained.TrainedAt,
			TextColumn: textCol,
		})
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

func handlePredict(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		m, err := deps.Models.Current()
		if errors.Is(err, model.ErrNotLoaded) {
			httpError(w, http.StatusConflict, "invalid_request_error", "no trained model; train one first")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading model: %v", err)
			return
		}

		writeJSON(w, m.Predict(req.Text))
	}
}
