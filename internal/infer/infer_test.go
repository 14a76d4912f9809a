package infer

import (
	"strings"
	"testing"

	"github.com/feedlens/feedlens/internal/dataset"
)

func load(t *testing.T, lines ...string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromCSV(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return d
}

func TestGuessColumns_ByName(t *testing.T) {
	d := load(t,
		"id,review_text,star_rating",
		"1,arrived fast and works fine,5",
		"2,broke within a week,1",
	)

	g := GuessColumns(d)
	if g.TextColumn != "review_text" {
		t.Errorf("TextColumn = %q, want review_text", g.TextColumn)
	}
	if g.SentimentColumn != "star_rating" {
		t.Errorf("SentimentColumn = %q, want star_rating", g.SentimentColumn)
	}
}

func TestGuessColumns_SentimentByValues(t *testing.T) {
	// "feeling" matches no name keyword; its values must be caught by
	// the value-based scan.
	d := load(t,
		"id,comments,feeling",
		"1,arrived quickly and setup was simple,positive",
		"2,the box was crushed on arrival,negative",
		"3,it does what the listing says,neutral",
	)

	g := GuessColumns(d)
	if g.SentimentColumn != "feeling" {
		t.Errorf("SentimentColumn = %q, want feeling", g.SentimentColumn)
	}
	if g.TextColumn != "comments" {
		t.Errorf("TextColumn = %q, want comments", g.TextColumn)
	}
}

func TestGuessColumns_NoSentiment(t *testing.T) {
	d := load(t,
		"id,city,zip",
		"1,springfield,11111",
		"2,shelbyville,22222",
	)

	g := GuessColumns(d)
	if g.SentimentColumn != "" {
		t.Errorf("SentimentColumn = %q, want empty (caller must degrade)", g.SentimentColumn)
	}
}

func TestGuessTextColumn_ByMeanLength(t *testing.T) {
	d := load(t,
		"id,sku,note",
		"1,ab,the shipment sat in customs for three weeks before it finally arrived",
		"2,cd,support answered within the hour and sorted out the replacement fast",
	)

	// Column names carry no text keyword; "note" wins on mean length.
	// Rename check: "note" is not in the keyword list.
	g := GuessColumns(d)
	if g.TextColumn != "note" {
		t.Errorf("TextColumn = %q, want note", g.TextColumn)
	}
}

func TestGuessTextColumn_FallsBackToFirstTextColumn(t *testing.T) {
	d := load(t,
		"id,tag,qty",
		"1,red,3",
		"2,blue,7",
	)

	// Short values everywhere: fall back to the first text-kind column.
	g := GuessColumns(d)
	if g.TextColumn != "tag" {
		t.Errorf("TextColumn = %q, want tag", g.TextColumn)
	}
}

func TestGuessTextColumn_AllNumeric(t *testing.T) {
	d := load(t,
		"a,b",
		"1,2",
		"3,4",
	)

	g := GuessColumns(d)
	if g.TextColumn != "a" {
		t.Errorf("TextColumn = %q, want first column a", g.TextColumn)
	}
}
