package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestFromCSV(t *testing.T) {
	in := strings.Join([]string{
		"id,review_text,star_rating",
		"1,arrived on time and works,5",
		"2,stopped charging after a week,1",
		"3,,3",
	}, "\n")

	d, err := FromCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := d.NumRows(); got != 3 {
		t.Errorf("NumRows() = %d, want 3", got)
	}
	wantNames := []string{"id", "review_text", "star_rating"}
	for i, name := range d.ColumnNames() {
		if name != wantNames[i] {
			t.Errorf("column %d = %q, want %q", i, name, wantNames[i])
		}
	}

	if got := d.Cell(1, "review_text"); got != "stopped charging after a week" {
		t.Errorf("Cell(1, review_text) = %q", got)
	}
	if got := d.Cell(2, "review_text"); got != "" {
		t.Errorf("missing cell = %q, want empty", got)
	}
	if got := d.Cell(99, "id"); got != "" {
		t.Errorf("out-of-range cell = %q, want empty", got)
	}
}

func TestFromCSV_KindDetection(t *testing.T) {
	in := strings.Join([]string{
		"id,comment,rating,mixed,empty",
		"1,nice,4.5,10,",
		"2,meh,3,ten,",
	}, "\n")

	d, err := FromCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKinds := map[string]Kind{
		"id":      Numeric,
		"comment": Text,
		"rating":  Numeric,
		"mixed":   Text, // "ten" does not parse
		"empty":   Text, // all-missing columns stay text
	}
	for name, want := range wantKinds {
		col, err := d.Column(name)
		if err != nil {
			t.Fatalf("Column(%q): %v", name, err)
		}
		if col.Kind != want {
			t.Errorf("column %q kind = %v, want %v", name, col.Kind, want)
		}
	}
}

func TestFromCSV_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"ragged row", "a,b\n1,2,3"},
		{"bare quote", "a,b\n\"unterminated,2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromCSV(strings.NewReader(tt.in))
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("got error %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestColumn_NotFound(t *testing.T) {
	d, err := FromCSV(strings.NewReader("a,b\n1,2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.Column("missing"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("got error %v, want ErrColumnNotFound", err)
	}
	if d.HasColumn("missing") {
		t.Error("HasColumn(missing) = true")
	}
	if !d.HasColumn("a") {
		t.Error("HasColumn(a) = false")
	}
}
