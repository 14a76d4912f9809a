// Package dataset materializes arbitrary tabular CSV uploads into a
// typed in-memory table. Uploaded files have no fixed schema: column
// roles are discovered downstream (see internal/infer), so the only
// typing done here is per-column value kind detection (numeric vs text).
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedInput is returned when the input cannot be parsed as
// tabular data: unreadable CSV, no header, ragged rows.
var ErrMalformedInput = errors.New("malformed tabular input")

// ErrColumnNotFound is returned when a declared column name does not
// exist in the dataset.
var ErrColumnNotFound = errors.New("column not found")

// Kind is the discovered value kind of a column.
type Kind int

const (
	// Text marks columns holding free-form string values.
	Text Kind = iota
	// Numeric marks columns where every non-empty value parses as a number.
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// Column is one named, ordered sequence of cell values. Empty cells
// are the missing-value marker and stay as "".
type Column struct {
	Name   string
	Kind   Kind
	Values []string
}

// Dataset is an ordered collection of named columns sharing row count.
// Loaded from a file, transformed in place, discarded after training
// or persistence.
type Dataset struct {
	columns []Column
	index   map[string]int
}

// FromCSV reads a header-first CSV into a Dataset. Ragged rows and
// empty input surface as ErrMalformedInput; no partial dataset is
// returned. Cell values are kept verbatim, empty cells meaning missing.
func FromCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedInput, err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrMalformedInput)
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: strings.TrimSpace(name)}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: row has %d fields, header has %d", ErrMalformedInput, len(record), len(header))
		}
		for i, v := range record {
			cols[i].Values = append(cols[i].Values, v)
		}
	}

	d := &Dataset{columns: cols, index: make(map[string]int, len(cols))}
	for i := range d.columns {
		d.columns[i].Kind = detectKind(d.columns[i].Values)
		d.index[d.columns[i].Name] = i
	}
	return d, nil
}

// detectKind reports Numeric when every non-empty value parses as a
// float. A column of only missing values stays Text.
func detectKind(values []string) Kind {
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return Text
		}
		seen = true
	}
	if !seen {
		return Text
	}
	return Numeric
}

// Columns returns the columns in file order.
func (d *Dataset) Columns() []Column {
	return d.columns
}

// ColumnNames returns the column names in file order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or ErrColumnNotFound.
func (d *Dataset) Column(name string) (Column, error) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return d.columns[i], nil
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if len(d.columns) == 0 {
		return 0
	}
	return len(d.columns[0].Values)
}

// Cell returns the value at (row, column name), "" when missing.
// Out-of-range rows and unknown columns also yield "".
func (d *Dataset) Cell(row int, name string) string {
	i, ok := d.index[name]
	if !ok {
		return ""
	}
	if row < 0 || row >= len(d.columns[i].Values) {
		return ""
	}
	return d.columns[i].Values[row]
}
