package detect

import (
	"strings"

	"golang.org/x/text/cases"
)

// ordinalVocabulary holds answers that mark a question as a rating scale
var ordinalVocabulary = map[string]bool{
	// agreement
	"strongly disagree": true, "disagree": true, "neutral": true, "agree": true, "strongly agree": true,
	// frequency
	"never": true, "rarely": true, "sometimes": true, "often": true, "always": true,
	// satisfaction
	"very dissatisfied": true, "dissatisfied": true, "satisfied": true, "very satisfied": true,
	// intensity
	"not at all": true, "slightly": true, "moderately": true, "very": true, "extremely": true,
	// quality
	"poor": true, "fair": true, "good": true, "very good": true, "excellent": true,
	"low": true, "medium": true, "high": true,
	"yes": true, "no": true, "maybe": true,
}

const (
	minScalePoints = 3
	maxScalePoints = 7
	// freeTextDistinct is the distinct-value count above which an
	// all-unique column is treated as free text or a timestamp
	freeTextDistinct = 50
)

// LooksLikeOrdinalScale reports whether values read like a Likert-style
// scale: 3 to 7 distinct answers, at least one of them a known scale word.
func LooksLikeOrdinalScale(values []string) bool {
	if len(values) < minScalePoints || len(values) > maxScalePoints {
		return false
	}
	folder := cases.Fold()
	for _, v := range values {
		if ordinalVocabulary[folder.String(strings.TrimSpace(v))] {
			return true
		}
	}
	return false
}

// Kind is the suggested treatment of a column. It mirrors the encoding kinds
// without importing them so detection stays free of encoding policy.
type Kind string

const (
	SuggestOrdinal Kind = "ordinal"
	SuggestNominal Kind = "nominal"
	SuggestScale   Kind = "scale"
	SuggestIgnore  Kind = "ignore"
)

// Suggest picks a default kind for a profiled column. It is advisory; callers
// may override it per column.
func Suggest(m Metadata) Kind {
	switch {
	case m.Present == 0:
		return SuggestIgnore
	case m.IsNumeric():
		return SuggestScale
	case LooksLikeOrdinalScale(m.Values):
		return SuggestOrdinal
	case m.Distinct > freeTextDistinct && m.Distinct == m.Present:
		return SuggestIgnore
	}
	return SuggestNominal
}
