// Package report renders sentiment analytics into downloadable PDF
// documents with embedded charts.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/errgroup"

	"github.com/feedlens/feedlens/internal/storage"
)

// ErrNoData is returned when there are no feedback records to report on.
var ErrNoData = errors.New("no feedback records to report on")

// Product renders a per-product sentiment report.
func Product(records []storage.FeedbackRecord) ([]byte, error) {
	return generate("Product Sentiment Report", "Product", records, func(r storage.FeedbackRecord) string {
		return r.ProductID
	})
}

// Campaign renders a per-campaign sentiment report.
func Campaign(records []storage.FeedbackRecord) ([]byte, error) {
	return generate("Campaign Sentiment Report", "Campaign", records, func(r storage.FeedbackRecord) string {
		return r.CampaignID
	})
}

// groupStats aggregates sentiment counts for one group key.
type groupStats struct {
	Key      string
	Total    int
	Positive int
	Negative int
	Neutral  int
}

func aggregate(records []storage.FeedbackRecord, keyFn func(storage.FeedbackRecord) string) []groupStats {
	byKey := make(map[string]*groupStats)
	for _, rec := range records {
		key := keyFn(rec)
		if key == "" {
			key = "(unassigned)"
		}
		gs, ok := byKey[key]
		if !ok {
			gs = &groupStats{Key: key}
			byKey[key] = gs
		}
		gs.Total++
		switch rec.Sentiment {
		case "positive":
			gs.Positive++
		case "negative":
			gs.Negative++
		default:
			gs.Neutral++
		}
	}

	out := make([]groupStats, 0, len(byKey))
	for _, gs := range byKey {
		out = append(out, *gs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sentimentCounts(records []storage.FeedbackRecord) (positive, negative, neutral int) {
	for _, rec := range records {
		switch rec.Sentiment {
		case "positive":
			positive++
		case "negative":
			negative++
		default:
			neutral++
		}
	}
	return
}

func generate(title, groupLabel string, records []storage.FeedbackRecord, keyFn func(storage.FeedbackRecord) string) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	positive, negative, neutral := sentimentCounts(records)
	groups := aggregate(records, keyFn)
	keywords := issueKeywords(records, maxIssueKeywords)

	// Chart rendering is CPU bound and independent per chart.
	var sentimentPNG, groupPNG bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		return renderSentimentChart(&sentimentPNG, positive, negative, neutral)
	})
	g.Go(func() error {
		return renderGroupChart(&groupPNG, groups)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rendering charts: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total feedback entries: %d", len(records)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Positive: %d    Negative: %d    Neutral: %d", positive, negative, neutral), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	embedPNG(pdf, "sentiment-chart", sentimentPNG.Bytes())
	pdf.Ln(4)

	writeGroupTable(pdf, groupLabel, groups)
	pdf.Ln(4)

	if len(keywords) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, "Common terms in negative feedback", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, kw := range keywords {
			pdf.CellFormat(0, 6, fmt.Sprintf("%s (%d mentions)", kw.Word, kw.Count), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	writeSamples(pdf, records)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, fmt.Sprintf("Positive share by %s", groupLabel), "", 1, "L", false, 0, "")
	embedPNG(pdf, "group-chart", groupPNG.Bytes())

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return out.Bytes(), nil
}

const (
	maxSamplesPerSentiment = 3
	maxSampleLength        = 110
)

// writeSamples lists a few example feedback texts for each sentiment.
func writeSamples(pdf *fpdf.Fpdf, records []storage.FeedbackRecord) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, "Sample feedback", "", 1, "L", false, 0, "")

	for _, label := range []string{"positive", "negative", "neutral"} {
		samples := sampleTexts(records, label, maxSamplesPerSentiment)
		if len(samples) == 0 {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, label, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range samples {
			pdf.CellFormat(0, 6, "- "+s, "", 1, "L", false, 0, "")
		}
		pdf.Ln(1)
	}
}

func sampleTexts(records []storage.FeedbackRecord, sentiment string, n int) []string {
	var out []string
	for _, rec := range records {
		label := rec.Sentiment
		if label != "positive" && label != "negative" {
			label = "neutral"
		}
		if label != sentiment || rec.Text == "" {
			continue
		}
		text := rec.Text
		if len(text) > maxSampleLength {
			text = text[:maxSampleLength] + "..."
		}
		out = append(out, text)
		if len(out) == n {
			break
		}
	}
	return out
}

func embedPNG(pdf *fpdf.Fpdf, name string, png []byte) {
	opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(png))
	pdf.ImageOptions(name, 15, pdf.GetY(), 180, 0, true, opt, 0, "")
}

func writeGroupTable(pdf *fpdf.Fpdf, groupLabel string, groups []groupStats) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, fmt.Sprintf("Breakdown by %s", groupLabel), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{70, 25, 25, 25, 25}
	headers := []string{groupLabel, "Total", "Positive", "Negative", "Neutral"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, gs := range groups {
		cells := []string{
			gs.Key,
			fmt.Sprintf("%d", gs.Total),
			fmt.Sprintf("%d", gs.Positive),
			fmt.Sprintf("%d", gs.Negative),
			fmt.Sprintf("%d", gs.Neutral),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func renderSentimentChart(w *bytes.Buffer, positive, negative, neutral int) error {
	graph := chart.BarChart{
		Title:    "Sentiment distribution",
		Width:    900,
		Height:   450,
		BarWidth: 80,
		Bars: []chart.Value{
			{Value: float64(positive) + barEpsilon, Label: "positive"},
			{Value: float64(negative) + barEpsilon, Label: "negative"},
			{Value: float64(neutral) + barEpsilon, Label: "neutral"},
		},
	}
	return graph.Render(chart.PNG, w)
}

// barEpsilon keeps all-zero bar sets renderable.
const barEpsilon = 1e-9

const maxGroupBars = 8

func renderGroupChart(w *bytes.Buffer, groups []groupStats) error {
	if len(groups) > maxGroupBars {
		groups = groups[:maxGroupBars]
	}
	bars := make([]chart.Value, 0, len(groups))
	for _, gs := range groups {
		share := 0.0
		if gs.Total > 0 {
			share = float64(gs.Positive) / float64(gs.Total)
		}
		bars = append(bars, chart.Value{Value: share*100 + barEpsilon, Label: gs.Key})
	}
	graph := chart.BarChart{
		Title:    "Positive feedback share (%)",
		Width:    900,
		Height:   450,
		BarWidth: 60,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}
