package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CollisionError reports a name that could not be given a free identifier
// within the search bound.
type CollisionError struct {
	// Original is the header that could not be placed
	Original string
	// Base is its sanitized form
	Base string
	// Conflicts lists the headers holding Base or any suffixed form the
	// search tried, in the order they were met
	Conflicts []string
	Attempts  int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("no free identifier for %q (base %q) after %d attempts; conflicts with %s",
		e.Original, e.Base, e.Attempts, strings.Join(quoteAll(e.Conflicts), ", "))
}

// UniqueNames sanitizes names in order and resolves collisions by appending
// _1, _2, ... to later occurrences. The returned slice is aligned with names.
func UniqueNames(names []string, maxLength int) ([]string, error) {
	s := DefaultSanitizer()
	s.MaxLength = maxLength
	return s.UniqueNames(names)
}

// UniqueNames is UniqueNames with the sanitizer's style and limits
func (s Sanitizer) UniqueNames(names []string) ([]string, error) {
	return s.UniqueNamesReserving(names, nil)
}

// UniqueNamesReserving is UniqueNames with identifiers that are already
// taken, mapped to the header that holds each. Reserved identifiers are
// never handed out; a sanitized name equal to one gets a suffix.
func (s Sanitizer) UniqueNamesReserving(names []string, reserved map[string]string) ([]string, error) {
	maxLength := s.MaxLength
	if maxLength <= 0 {
		maxLength = MaxLength
	}

	out := make([]string, len(names))
	owner := make(map[string]string, len(names)+len(reserved))
	for id, holder := range reserved {
		owner[id] = holder
	}
	byBase := make(map[string][]string)
	limit := len(names) + len(reserved) + 1

	for i, original := range names {
		base := s.Sanitize(original)
		candidate := base

		if holder, taken := owner[candidate]; taken {
			conflicts := []string{holder}
			found := false
			for counter := 1; counter <= limit; counter++ {
				sfx := suffix(counter)
				room := maxLength - utf8.RuneCountInString(sfx)
				if room < 1 {
					break
				}
				candidate = truncate(base, room) + sfx
				holder, taken := owner[candidate]
				if !taken {
					found = true
					break
				}
				conflicts = append(conflicts, holder)
			}
			if !found {
				return nil, &CollisionError{
					Original:  original,
					Base:      base,
					Conflicts: dedupe(append(append([]string(nil), byBase[base]...), conflicts...)),
					Attempts:  limit,
				}
			}
		}

		owner[candidate] = original
		byBase[base] = append(byBase[base], original)
		out[i] = candidate
	}

	return out, nil
}

// NameMap pairs each original header with its identifier. Duplicate headers
// keep the identifier of their first occurrence.
func NameMap(names, identifiers []string) map[string]string {
	m := make(map[string]string, len(names))
	for i, n := range names {
		if _, ok := m[n]; !ok && i < len(identifiers) {
			m[n] = identifiers[i]
		}
	}
	return m
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
