package encoding

import (
	"fmt"
	"sort"

	"github.com/pixperk/spssprep/internal/table"
)

// Miss is a present value that had no code in its column's mapping
type Miss struct {
	Identifier string   `json:"identifier"`
	Count      int      `json:"count"`
	Values     []string `json:"values"`
}

// Diagnostics collects non-fatal findings of an Apply run
type Diagnostics struct {
	// Misses is keyed by target identifier
	Misses map[string]Miss
	// Unconfigured lists source columns that had no config and were left as is
	Unconfigured []string
	// Stale lists configured columns that the table does not have
	Stale []string
}

// TotalMisses sums the miss counts across columns
func (d Diagnostics) TotalMisses() int {
	total := 0
	for _, m := range d.Misses {
		total += m.Count
	}
	return total
}

// Result is the recoded table plus everything needed to describe it
type Result struct {
	Table *table.Table
	// Mappings is keyed by target identifier and only holds non-empty mappings
	Mappings map[string]Mapping
	// Identifiers is the output column order
	Identifiers []string
	// Originals maps target identifier to source column name
	Originals   map[string]string
	Diagnostics Diagnostics
}

// Apply recodes t according to configs. Columns without a config are left
// unchanged. The input table is not modified.
func Apply(t *table.Table, configs []ColumnConfig) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	byColumn := make(map[string]ColumnConfig, len(configs))
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byColumn[c.Column]; dup {
			return nil, &ConfigError{Column: c.Column, Reason: "configured more than once"}
		}
		byColumn[c.Column] = c.Normalized()
	}
	res := &Result{
		Table:       &table.Table{Columns: make([]table.Column, 0, len(t.Columns))},
		Mappings:    make(map[string]Mapping),
		Identifiers: make([]string, 0, len(t.Columns)),
		Originals:   make(map[string]string, len(t.Columns)),
		Diagnostics: Diagnostics{Misses: make(map[string]Miss)},
	}
	taken := make(map[string]string, len(t.Columns))

	for _, col := range t.Columns {
		cfg, ok := byColumn[col.Name]
		if !ok {
			res.Diagnostics.Unconfigured = append(res.Diagnostics.Unconfigured, col.Name)
			cfg = ColumnConfig{Column: col.Name, Kind: Ignore}
		}

		id := cfg.TargetName()
		if prev, dup := taken[id]; dup {
			return nil, fmt.Errorf("columns %q and %q both map to identifier %q", prev, col.Name, id)
		}
		taken[id] = col.Name

		out := col.Clone()
		out.Name = id

		switch cfg.Kind {
		case Scale:
			out.Format = table.FormatNumber
		case Ordinal, Nominal:
			mapping := cfg.Mapping()
			miss := recode(&out, mapping)
			out.Format = table.FormatInteger
			if len(mapping) > 0 {
				res.Mappings[id] = mapping
			}
			if miss.Count > 0 {
				miss.Identifier = id
				res.Diagnostics.Misses[id] = miss
			}
		}

		res.Table.Columns = append(res.Table.Columns, out)
		res.Identifiers = append(res.Identifiers, id)
		res.Originals[id] = col.Name
	}

	for _, c := range configs {
		if _, ok := t.Column(c.Column); !ok {
			res.Diagnostics.Stale = append(res.Diagnostics.Stale, c.Column)
		}
	}

	return res, nil
}

// recode rewrites the cells of col in place. Missing stays missing; a value
// absent from the mapping becomes missing and is reported.
func recode(col *table.Column, mapping Mapping) Miss {
	var miss Miss
	unmapped := make(map[string]struct{})
	for i, cell := range col.Cells {
		if !cell.Valid {
			continue
		}
		code, ok := mapping.Lookup(cell.Text)
		if !ok {
			col.Cells[i] = table.Missing
			miss.Count++
			unmapped[cell.Text] = struct{}{}
			continue
		}
		col.Cells[i] = table.Int(code)
	}
	for v := range unmapped {
		miss.Values = append(miss.Values, v)
	}
	sort.Strings(miss.Values)
	return miss
}
