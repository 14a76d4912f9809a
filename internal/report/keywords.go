package report

import (
	"sort"
	"strings"

	"github.com/feedlens/feedlens/internal/model"
	"github.com/feedlens/feedlens/internal/normalize"
	"github.com/feedlens/feedlens/internal/storage"
)

const maxIssueKeywords = 10

// Keyword is a term mined from negative feedback with its mention count.
type Keyword struct {
	Word  string
	Count int
}

// issueKeywords counts content words across negative feedback texts,
// using the same normalization and stopword filter the sentiment model
// applies. Ties break alphabetically so report output is stable.
func issueKeywords(records []storage.FeedbackRecord, limit int) []Keyword {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Sentiment != "negative" {
			continue
		}
		for _, word := range strings.Fields(normalize.Text(rec.Text)) {
			if len(word) < 2 || model.IsStopword(word) {
				continue
			}
			counts[word]++
		}
	}

	keywords := make([]Keyword, 0, len(counts))
	for word, n := range counts {
		keywords = append(keywords, Keyword{Word: word, Count: n})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Word < keywords[j].Word
	})
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}
