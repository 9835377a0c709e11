// Package naming turns arbitrary column headers into SPSS variable names.
//
// SPSS accepts Unicode letters in variable names, so the default style keeps
// Arabic, Hebrew, CJK and other scripts intact and only replaces punctuation
// and whitespace. The ASCII style reproduces the rule set of the earliest
// releases for users whose SPSS installs still run in code-page mode.
package naming

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pixperk/spssprep/internal/textsafe"
)

const (
	// MaxLength is the SPSS limit on variable name length
	MaxLength = 64
	// Fallback is used when nothing survives sanitization
	Fallback = "var"
)

// Style selects the character rules used by Sanitizer
type Style string

const (
	StyleUnicode Style = "unicode"
	StyleASCII   Style = "ascii"
)

// ParseStyle accepts "", "unicode" and "ascii" (case-insensitive)
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StyleUnicode):
		return StyleUnicode, nil
	case string(StyleASCII):
		return StyleASCII, nil
	}
	return "", fmt.Errorf("unknown name style %q (want unicode or ascii)", s)
}

// Sanitize converts name to an identifier of at most maxLength runes.
// The result starts with a letter, or is exactly fallback.
func Sanitize(name string, maxLength int, fallback string) string {
	name = textsafe.StripBidi(name)

	mapped := strings.Map(func(r rune) rune {
		if isIdentRune(r) {
			return r
		}
		return '_'
	}, name)

	s := strings.Trim(collapseUnderscores(mapped), "_")
	if s == "" {
		return fallback
	}

	if first, _ := firstRune(s); !unicode.IsLetter(first) {
		s = "v_" + s
	}

	return strings.TrimRight(truncate(s, maxLength), "_")
}

// SanitizeASCII is the legacy rule set: anything outside [A-Za-z0-9_]
// becomes an underscore and a "v_" prefix is added whenever the name does not
// begin with an ASCII letter.
func SanitizeASCII(name string, maxLength int) string {
	mapped := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (isASCIILetter(r) || (r >= '0' && r <= '9') || r == '_') {
			return r
		}
		return '_'
	}, textsafe.StripBidi(name))

	s := collapseUnderscores(mapped)
	if s == "" || !isASCIILetter(rune(s[0])) {
		s = "v_" + s
	}

	return strings.TrimRight(truncate(s, maxLength), "_")
}

// Sanitizer bundles the per-run naming choices
type Sanitizer struct {
	Style     Style
	MaxLength int
	Fallback  string
}

// DefaultSanitizer uses the Unicode style with SPSS limits
func DefaultSanitizer() Sanitizer {
	return Sanitizer{Style: StyleUnicode, MaxLength: MaxLength, Fallback: Fallback}
}

// Sanitize applies the configured style to a single name
func (s Sanitizer) Sanitize(name string) string {
	max := s.MaxLength
	if max <= 0 {
		max = MaxLength
	}
	if s.Style == StyleASCII {
		return SanitizeASCII(name, max)
	}
	fallback := s.Fallback
	if fallback == "" {
		fallback = Fallback
	}
	return Sanitize(name, max, fallback)
}

func isIdentRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '_', '.', '@', '#', '$':
		return true
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for _, r := range s {
		if r == '_' {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// truncate cuts s to n runes
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func suffix(n int) string {
	return "_" + strconv.Itoa(n)
}
