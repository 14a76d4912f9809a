package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/feedlens/feedlens/internal/storage"
)

// ExtractPDFText returns the plain text of a PDF file.
func ExtractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// FromPDF extracts text from a PDF and turns each non-empty line into
// one unlabeled feedback record with platform "pdf".
func FromPDF(path string) ([]storage.FeedbackRecord, error) {
	text, err := ExtractPDFText(path)
	if err != nil {
		return nil, err
	}
	return recordsFromLines(text), nil
}

func recordsFromLines(text string) []storage.FeedbackRecord {
	var records []storage.FeedbackRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, storage.FeedbackRecord{
			Text:     line,
			Platform: "pdf",
		})
	}
	return records
}
