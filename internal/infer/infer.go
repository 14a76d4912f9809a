// Package infer guesses which columns of an arbitrary uploaded dataset
// hold free-text feedback and sentiment labels. The heuristics are
// best-effort and never fail: an empty field in the result means "no
// usable column found" and callers must degrade (disable the dependent
// views) rather than error.
package infer

import (
	"strings"

	"github.com/feedlens/feedlens/internal/dataset"
)

// ColumnGuess holds the inferred column roles. Empty string means the
// role could not be assigned. Recomputed per dataset, never persisted.
type ColumnGuess struct {
	TextColumn      string `json:"text_column,omitempty"`
	SentimentColumn string `json:"sentiment_column,omitempty"`
}

var sentimentNameKeywords = []string{
	"sentiment", "label", "rating", "score", "class", "category", "polarity",
}

var sentimentValueWords = []string{
	"positive", "negative", "neutral", "good", "bad", "poor", "excellent",
}

var textNameKeywords = []string{
	"text", "review", "comment", "feedback", "message", "content", "description",
}

// distinctValueSample is how many distinct non-null values per column
// the value-based sentiment scan inspects.
const distinctValueSample = 10

// minMeanTextLength is the mean value length a column must exceed to
// qualify as free text in the length-based fallback.
const minMeanTextLength = 20

// GuessColumns infers the text and sentiment columns of d.
func GuessColumns(d *dataset.Dataset) ColumnGuess {
	return ColumnGuess{
		TextColumn:      guessTextColumn(d),
		SentimentColumn: guessSentimentColumn(d),
	}
}

func guessSentimentColumn(d *dataset.Dataset) string {
	// Name-based match wins outright, regardless of column kind:
	// numeric star ratings are legitimate labels.
	for _, col := range d.Columns() {
		name := strings.ToLower(col.Name)
		for _, kw := range sentimentNameKeywords {
			if strings.Contains(name, kw) {
				return col.Name
			}
		}
	}

	// Otherwise scan text-kind columns for sentiment-like values in the
	// first few distinct entries. First column satisfying this wins.
	for _, col := range d.Columns() {
		if col.Kind != dataset.Text {
			continue
		}
		joined := strings.ToLower(strings.Join(distinctNonNull(col.Values, distinctValueSample), " "))
		for _, w := range sentimentValueWords {
			if strings.Contains(joined, w) {
				return col.Name
			}
		}
	}

	return ""
}

func guessTextColumn(d *dataset.Dataset) string {
	for _, col := range d.Columns() {
		name := strings.ToLower(col.Name)
		for _, kw := range textNameKeywords {
			if strings.Contains(name, kw) {
				return col.Name
			}
		}
	}

	// No obvious name: pick the text-kind column with the greatest mean
	// value length, provided it looks like prose. First one reaching the
	// max wins ties.
	best := ""
	bestLen := float64(minMeanTextLength)
	for _, col := range d.Columns() {
		if col.Kind != dataset.Text || len(col.Values) == 0 {
			continue
		}
		total := 0
		for _, v := range col.Values {
			total += len(v)
		}
		mean := float64(total) / float64(len(col.Values))
		if mean > bestLen {
			best = col.Name
			bestLen = mean
		}
	}
	if best != "" {
		return best
	}

	// Fall back to the first text-kind column, then the first column of
	// any kind.
	for _, col := range d.Columns() {
		if col.Kind == dataset.Text {
			return col.Name
		}
	}
	if cols := d.Columns(); len(cols) > 0 {
		return cols[0].Name
	}
	return ""
}

func distinctNonNull(values []string, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
