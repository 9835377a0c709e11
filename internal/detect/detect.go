// Package detect profiles the columns of a survey table: which answers occur,
// how often, how many are blank, and whether the column already looks
// numeric or like a multi-select question.
package detect

import (
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pixperk/spssprep/internal/table"
)

// NumericThreshold is the share of parseable values above which a column is
// treated as already numeric
const NumericThreshold = 0.8

// Metadata is computed once per column and never mutated
type Metadata struct {
	Name string `json:"name"`
	// Values holds distinct answers, most frequent first; ties keep the order
	// of first appearance
	Values []string `json:"values"`
	// Counts maps each distinct answer to its frequency
	Counts        map[string]int `json:"counts"`
	Distinct      int            `json:"distinct"`
	Missing       int            `json:"missing"`
	Present       int            `json:"present"`
	NumericRatio  float64        `json:"numeric_ratio"`
	MultiResponse bool           `json:"multi_response"`
}

// IsNumeric reports whether most present values parse as numbers
func (m Metadata) IsNumeric() bool {
	return m.NumericRatio > NumericThreshold
}

// Detect profiles every column of t, keyed by column name
func Detect(t *table.Table) map[string]Metadata {
	ordered := DetectOrdered(t)
	out := make(map[string]Metadata, len(ordered))
	for _, m := range ordered {
		out[m.Name] = m
	}
	return out
}

// DetectOrdered profiles every column of t, returning results in column
// order. Columns are profiled concurrently; each profile depends only on its
// own column so the result matches a sequential pass.
func DetectOrdered(t *table.Table) []Metadata {
	out := make([]Metadata, len(t.Columns))

	var wg sync.WaitGroup
	for i := range t.Columns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = Column(t.Columns[i])
		}(i)
	}
	wg.Wait()

	return out
}

// Column profiles a single column
func Column(col table.Column) Metadata {
	m := Metadata{
		Name:   col.Name,
		Counts: make(map[string]int),
	}

	numeric := 0
	for _, c := range col.Cells {
		if !c.Valid {
			m.Missing++
			continue
		}
		m.Present++
		if _, seen := m.Counts[c.Text]; !seen {
			m.Values = append(m.Values, c.Text)
		}
		m.Counts[c.Text]++
		if IsNumber(c.Text) {
			numeric++
		}
	}

	rankByCount(m.Values, m.Counts)
	m.Distinct = len(m.Values)

	if m.Present > 0 {
		m.NumericRatio = float64(numeric) / float64(m.Present)
	}
	for _, v := range m.Values {
		if IsMultiResponse(v) {
			m.MultiResponse = true
			break
		}
	}

	return m
}

// rankByCount sorts values by descending count. The sort is stable so the
// first-appearance order survives for ties.
func rankByCount(values []string, counts map[string]int) {
	slices.SortStableFunc(values, func(a, b string) int {
		return counts[b] - counts[a]
	})
}

// IsNumber reports whether s parses as a decimal number, ignoring
// surrounding whitespace
func IsNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

// IsMultiResponse reports whether v carries a comma or semicolon, the
// separators forms use for checkbox answers
func IsMultiResponse(v string) bool {
	return strings.ContainsAny(v, ",;")
}
