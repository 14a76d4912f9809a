// Package ingest maps uploaded feedback files onto storable records.
// CSV uploads go through dataset parsing plus column inference; PDF
// uploads are treated as one feedback entry per line of extracted text.
package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/storage"
)

var (
	platformNameKeywords = []string{"platform", "source", "channel"}
	productNameKeywords  = []string{"product"}
	campaignNameKeywords = []string{"campaign"}
	dateNameKeywords     = []string{"date", "time", "created"}
)

// Accepted timestamp layouts, tried in order. Feedback exports in the
// wild are inconsistent about this.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Records converts dataset rows into feedback records. textCol is
// required; sentimentCol may be empty for unlabeled uploads. Rows whose
// text cell is blank are skipped. Optional platform, product, campaign,
// and date columns are matched by name and left zero when absent or
// unparseable.
func Records(d *dataset.Dataset, textCol, sentimentCol string) ([]storage.FeedbackRecord, error) {
	if !d.HasColumn(textCol) {
		return nil, fmt.Errorf("text column %q: %w", textCol, dataset.ErrColumnNotFound)
	}
	if sentimentCol != "" && !d.HasColumn(sentimentCol) {
		return nil, fmt.Errorf("sentiment column %q: %w", sentimentCol, dataset.ErrColumnNotFound)
	}

	platformCol := findColumn(d, platformNameKeywords)
	productCol := findColumn(d, productNameKeywords)
	campaignCol := findColumn(d, campaignNameKeywords)
	dateCol := findColumn(d, dateNameKeywords)

	var records []storage.FeedbackRecord
	for row := 0; row < d.NumRows(); row++ {
		text := strings.TrimSpace(d.Cell(row, textCol))
		if text == "" {
			continue
		}
		rec := storage.FeedbackRecord{Text: text}
		if sentimentCol != "" {
			rec.Sentiment = strings.ToLower(strings.TrimSpace(d.Cell(row, sentimentCol)))
		}
		if platformCol != "" {
			rec.Platform = strings.TrimSpace(d.Cell(row, platformCol))
		}
		if productCol != "" {
			rec.ProductID = strings.TrimSpace(d.Cell(row, productCol))
		}
		if campaignCol != "" {
			rec.CampaignID = strings.TrimSpace(d.Cell(row, campaignCol))
		}
		if dateCol != "" {
			rec.Date = parseDate(d.Cell(row, dateCol))
		}
		records = append(records, rec)
	}
	return records, nil
}

func findColumn(d *dataset.Dataset, keywords []string) string {
	for _, name := range d.ColumnNames() {
		lower := strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return name
			}
		}
	}
	return ""
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
