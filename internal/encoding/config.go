// Package encoding derives value-to-code mappings from per-column settings
// and applies them to a table.
package encoding

import (
	"fmt"
	"strings"
)

// Kind is the treatment a column receives
type Kind string

const (
	// Ordinal is an ordered categorical (Likert-style) column
	Ordinal Kind = "ordinal"
	// Nominal is an unordered categorical column
	Nominal Kind = "nominal"
	// Scale is already numeric and passes through unencoded
	Scale Kind = "scale"
	// Ignore excludes the column from recoding
	Ignore Kind = "ignore"
)

// ParseKind accepts the kind names case-insensitively. "likert" is an alias
// of ordinal.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordinal", "likert":
		return Ordinal, nil
	case "nominal":
		return Nominal, nil
	case "scale":
		return Scale, nil
	case "ignore":
		return Ignore, nil
	}
	return "", fmt.Errorf("unknown encoding kind %q", s)
}

// Encodes reports whether the kind produces integer codes
func (k Kind) Encodes() bool {
	return k == Ordinal || k == Nominal
}

type Direction string

const (
	// Ascending gives the first value the smallest code
	Ascending Direction = "ascending"
	// Descending gives the first value the largest code
	Descending Direction = "descending"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// MissingPolicy says what happens to blank cells. Only LeaveBlank exists:
// missing input stays missing output.
type MissingPolicy string

const LeaveBlank MissingPolicy = "leave_blank"

// ColumnConfig is the encoding intent for one column. It is treated as a
// frozen input once passed to Apply.
type ColumnConfig struct {
	// Column is the source column name
	Column string
	Kind   Kind
	// Order lists the distinct values in encoding order
	Order      []string
	StartValue int
	Direction  Direction
	Missing    MissingPolicy
	// Identifier is the output column name; Column when empty
	Identifier string
}

// ConfigError reports an unusable column configuration
type ConfigError struct {
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// Validate checks the invariants Mapping relies on
func (c ColumnConfig) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return &ConfigError{Column: c.Column, Reason: err.Error()}
	}
	if _, err := ParseDirection(string(c.Direction)); err != nil {
		return &ConfigError{Column: c.Column, Reason: err.Error()}
	}
	if c.StartValue < 0 {
		return &ConfigError{Column: c.Column, Reason: fmt.Sprintf("start value %d is negative", c.StartValue)}
	}
	if c.Missing != "" && c.Missing != LeaveBlank {
		return &ConfigError{Column: c.Column, Reason: fmt.Sprintf("unsupported missing policy %q", c.Missing)}
	}
	seen := make(map[string]bool, len(c.Order))
	for _, v := range c.Order {
		if seen[v] {
			return &ConfigError{Column: c.Column, Reason: fmt.Sprintf("value %q listed twice", v)}
		}
		seen[v] = true
	}
	return nil
}

// Normalized returns c with kind and direction aliases resolved to their
// canonical values ("likert" to ordinal, "desc" to descending). Values that
// do not parse are kept for Validate to report.
func (c ColumnConfig) Normalized() ColumnConfig {
	if k, err := ParseKind(string(c.Kind)); err == nil {
		c.Kind = k
	}
	if d, err := ParseDirection(string(c.Direction)); err == nil {
		c.Direction = d
	}
	return c
}

// TargetName is the identifier the column is written under
func (c ColumnConfig) TargetName() string {
	if c.Identifier != "" {
		return c.Identifier
	}
	return c.Column
}

// Mapping derives the value-to-code association. It depends only on the
// kind, order, start value and direction.
func (c ColumnConfig) Mapping() Mapping {
	c = c.Normalized()
	if !c.Kind.Encodes() {
		return Mapping{}
	}

	n := len(c.Order)
	m := make(Mapping, n)
	for i, v := range c.Order {
		if c.Direction == Descending {
			m[v] = c.StartValue + (n - 1 - i)
		} else {
			m[v] = c.StartValue + i
		}
	}
	return m
}
