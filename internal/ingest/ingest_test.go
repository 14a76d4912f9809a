package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/feedlens/feedlens/internal/dataset"
)

func parseCSV(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}
	return d
}

func TestRecords(t *testing.T) {
	d := parseCSV(t, `review,sentiment,platform,product_id,campaign,date
Great phone,Positive,web,P1,C1,2024-03-01
Terrible battery,NEGATIVE,app,P2,C1,2024-03-02
,neutral,web,P3,C2,2024-03-03
`)

	records, err := Records(d, "review", "sentiment")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (blank text skipped)", len(records))
	}

	first := records[0]
	if first.Text != "Great phone" {
		t.Errorf("Text = %q", first.Text)
	}
	if first.Sentiment != "positive" {
		t.Errorf("Sentiment = %q, want lowercased positive", first.Sentiment)
	}
	if first.Platform != "web" || first.ProductID != "P1" || first.CampaignID != "C1" {
		t.Errorf("optional fields = %q/%q/%q", first.Platform, first.ProductID, first.CampaignID)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !first.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", first.Date, want)
	}
	if records[1].Sentiment != "negative" {
		t.Errorf("Sentiment = %q, want negative", records[1].Sentiment)
	}
}

func TestRecordsUnlabeled(t *testing.T) {
	d := parseCSV(t, `comment
The delivery was fast
Could be cheaper
`)
	records, err := Records(d, "comment", "")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Sentiment != "" {
			t.Errorf("Sentiment = %q, want empty", rec.Sentiment)
		}
		if rec.Platform != "" {
			t.Errorf("Platform = %q, want empty", rec.Platform)
		}
		if !rec.Date.IsZero() {
			t.Errorf("Date = %v, want zero", rec.Date)
		}
	}
}

func TestRecordsMissingColumn(t *testing.T) {
	d := parseCSV(t, "a,b\n1,2\n")
	if _, err := Records(d, "nope", ""); !errors.Is(err, dataset.ErrColumnNotFound) {
		t.Fatalf("text column: got %v, want ErrColumnNotFound", err)
	}
	if _, err := Records(d, "a", "nope"); !errors.Is(err, dataset.ErrColumnNotFound) {
		t.Fatalf("sentiment column: got %v, want ErrColumnNotFound", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01 10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-03-01T10:30:00Z", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}
	for _, tc := range cases {
		if got := parseDate(tc.in); !got.Equal(tc.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRecordsFromLines(t *testing.T) {
	records := recordsFromLines("First comment\n\n  Second comment  \n\n")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Text != "First comment" || records[1].Text != "Second comment" {
		t.Errorf("texts = %q, %q", records[0].Text, records[1].Text)
	}
	for _, rec := range records {
		if rec.Platform != "pdf" {
			t.Errorf("Platform = %q, want pdf", rec.Platform)
		}
	}
}
