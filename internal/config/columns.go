package config

import (
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
)

// EffectiveColumn merges a detected column with its config entry. Without an
// entry the suggested kind is used. An entry without an order takes the
// detected values in frequency order; a configured order is used as given,
// so answers it does not list end up missing and are reported by Apply.
func (c *Config) EffectiveColumn(m detect.Metadata) (ResolvedColumnConfig, error) {
	cc, ok := c.Column(m.Name)
	if !ok {
		cc = ColumnConfig{Name: m.Name, Kind: string(detect.Suggest(m))}
	}

	resolved, err := c.ResolveColumnConfig(cc)
	if err != nil {
		return resolved, err
	}
	if len(cc.Order) == 0 {
		resolved.Order = append([]string(nil), m.Values...)
	} else {
		resolved.Order = append([]string(nil), cc.Order...)
	}
	return resolved, nil
}

// MergeOrder returns configured followed by the detected values it lacks.
// The configure editor uses it so unlisted answers can be placed by hand.
func MergeOrder(configured, detected []string) []string {
	out := make([]string, 0, len(configured)+len(detected))
	seen := make(map[string]bool, len(configured)+len(detected))
	for _, v := range configured {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range detected {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// EncodingConfig converts a resolved column into the encoder's input. The
// identifier is passed in because uniqueness is decided across all columns.
func (r ResolvedColumnConfig) EncodingConfig(identifier string) encoding.ColumnConfig {
	return encoding.ColumnConfig{
		Column:     r.Name,
		Kind:       r.Kind,
		Order:      r.Order,
		StartValue: r.StartValue,
		Direction:  r.Direction,
		Missing:    encoding.LeaveBlank,
		Identifier: identifier,
	}
}

// Entry turns a resolved column back into a file entry with every field set
func (r ResolvedColumnConfig) Entry() ColumnConfig {
	start := r.StartValue
	dir := string(r.Direction)
	sanitize := r.Sanitize
	return ColumnConfig{
		Name:       r.Name,
		Kind:       string(r.Kind),
		Order:      r.Order,
		StartValue: &start,
		Direction:  &dir,
		Identifier: r.Identifier,
		Sanitize:   &sanitize,
	}
}
