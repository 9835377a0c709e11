// Package table is the in-memory shape of a survey export: named columns of
// text cells, any of which may be missing. Readers and writers for CSV and
// XLSX live alongside it.
package table

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrShape marks input that cannot be read as a rectangular table
var ErrShape = errors.New("input is not a rectangular table")

// ShapeError describes where an input stopped looking like a table
type ShapeError struct {
	Source string
	Row    int // 1-based, 0 when not row specific
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// Cell is a text value or missing
type Cell struct {
	Text  string
	Valid bool
}

// Missing is the absent cell
var Missing = Cell{}

// Text wraps s as a present cell
func Text(s string) Cell { return Cell{Text: s, Valid: true} }

// Int wraps an integer code as a present cell
func Int(n int) Cell { return Text(strconv.Itoa(n)) }

// Format tells writers how to emit a column's cells
type Format int

const (
	FormatText Format = iota
	// FormatNumber writes cells that parse as numbers as numeric values
	FormatNumber
	// FormatInteger is used for recoded columns
	FormatInteger
)

func (f Format) String() string {
	switch f {
	case FormatNumber:
		return "number"
	case FormatInteger:
		return "integer"
	}
	return "text"
}

type Column struct {
	Name   string
	Cells  []Cell
	Format Format
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return Column{Name: c.Name, Cells: cells, Format: c.Format}
}

type Table struct {
	Columns []Column
}

// FromRecords builds a table from a header row and data records. Missing
// trailing cells in short records become missing; longer records are a
// ShapeError. Empty strings are read as missing.
func FromRecords(source string, header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, &ShapeError{Source: source, Reason: "no header row"}
	}

	names := normalizeHeader(header)
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Cells: make([]Cell, 0, len(records))}
	}

	for r, rec := range records {
		if len(rec) > len(cols) {
			return nil, &ShapeError{
				Source: source,
				Row:    r + 2,
				Reason: fmt.Sprintf("expected %d fields, saw %d", len(cols), len(rec)),
			}
		}
		for i := range cols {
			if i < len(rec) && rec[i] != "" {
				cols[i].Cells = append(cols[i].Cells, Text(rec[i]))
			} else {
				cols[i].Cells = append(cols[i].Cells, Missing)
			}
		}
	}

	return &Table{Columns: cols}, nil
}

// Rows returns the shared row count
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Names returns column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column finds a column by name
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	return &Table{Columns: cols}
}

// Validate checks the rectangular and unique-name invariants
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	rows := t.Rows()
	for _, c := range t.Columns {
		if seen[c.Name] {
			return &ShapeError{Source: "table", Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true
		if len(c.Cells) != rows {
			return &ShapeError{
				Source: "table",
				Reason: fmt.Sprintf("column %q has %d rows, expected %d", c.Name, len(c.Cells), rows),
			}
		}
	}
	return nil
}

// Row returns the cells of row i across all columns
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Columns[c].Cells[i]
	}
	return row
}

// normalizeHeader names blank headers "Unnamed: N" and de-duplicates
// repeats as "Q", "Q.1", "Q.2" the way spreadsheet tooling does.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))

	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
