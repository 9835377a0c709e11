package textsafe

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/rangetable"
)

// BidiControls lists the invisible direction marks, embeddings, overrides and
// isolates that spreadsheets exported from RTL locales carry along with text.
var BidiControls = []rune{
	'\u200E', // LEFT-TO-RIGHT MARK
	'\u200F', // RIGHT-TO-LEFT MARK
	'\u202A', // LEFT-TO-RIGHT EMBEDDING
	'\u202B', // RIGHT-TO-LEFT EMBEDDING
	'\u202C', // POP DIRECTIONAL FORMATTING
	'\u202D', // LEFT-TO-RIGHT OVERRIDE
	'\u202E', // RIGHT-TO-LEFT OVERRIDE
	'\u2066', // LEFT-TO-RIGHT ISOLATE
	'\u2067', // RIGHT-TO-LEFT ISOLATE
	'\u2068', // FIRST STRONG ISOLATE
	'\u2069', // POP DIRECTIONAL ISOLATE
}

var bidiTable = rangetable.New(BidiControls...)

// IsBidiControl reports whether r is one of BidiControls
func IsBidiControl(r rune) bool {
	return runes.In(bidiTable).Contains(r)
}

// StripBidi removes every bidirectional control character from text
func StripBidi(text string) string {
	if !strings.ContainsFunc(text, IsBidiControl) {
		return text
	}
	out, _, err := transform.String(runes.Remove(runes.In(bidiTable)), text)
	if err != nil {
		// runes.Remove cannot fail on valid input; fall back to a manual pass
		return strings.Map(func(r rune) rune {
			if IsBidiControl(r) {
				return -1
			}
			return r
		}, text)
	}
	return out
}

// controlToSpace maps C0 and C1 control characters (line breaks, tabs) to a
// space. A quoted syntax literal cannot span lines.
var controlToSpace = runes.Map(func(r rune) rune {
	if unicode.IsControl(r) {
		return ' '
	}
	return r
})

// StripControls replaces control characters with spaces; a CRLF pair
// becomes a single space
func StripControls(text string) string {
	if !strings.ContainsFunc(text, unicode.IsControl) {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out, _, err := transform.String(controlToSpace, text)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return ' '
			}
			return r
		}, text)
	}
	return out
}

// EscapeLabel makes text safe inside a single-quoted syntax literal:
// bidi controls are stripped, line breaks and other control characters
// become spaces and every quote is doubled.
func EscapeLabel(text string) string {
	return strings.ReplaceAll(StripControls(StripBidi(text)), "'", "''")
}

// EscapePath renders a file path for a quoted FILE= / OUTFILE= argument.
// The path is made absolute and backslashes are doubled for Windows installs.
func EscapePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return EscapeLabel(strings.ReplaceAll(path, `\`, `\\`))
}
