package encoding

import "sort"

// Mapping associates distinct answers with integer codes
type Mapping map[string]int

// Pair is one value/code entry
type Pair struct {
	Value string `json:"value"`
	Code  int    `json:"code"`
}

// Pairs returns the entries sorted by ascending code, then value
func (m Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m))
	for v, c := range m {
		pairs = append(pairs, Pair{Value: v, Code: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Code != pairs[j].Code {
			return pairs[i].Code < pairs[j].Code
		}
		return pairs[i].Value < pairs[j].Value
	})
	return pairs
}

// Lookup returns the code for value
func (m Mapping) Lookup(value string) (int, bool) {
	code, ok := m[value]
	return code, ok
}
