package naming

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueNames_Duplicates(t *testing.T) {
	t.Parallel()

	got, err := UniqueNames([]string{"Q", "Q", "Q"}, MaxLength)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q", "Q_1", "Q_2"}, got)
}

func TestUniqueNames_DifferentOriginalsSameBase(t *testing.T) {
	t.Parallel()

	got, err := UniqueNames([]string{"Age Group", "Age-Group", "Age  Group?", "???", "!!!"}, MaxLength)
	require.NoError(t, err)

	assert.Equal(t, []string{"Age_Group", "Age_Group_1", "Age_Group_2", "var", "var_1"}, got)
}

func TestUniqueNames_SuffixCollidesWithExisting(t *testing.T) {
	t.Parallel()

	// "Q 1" sanitizes to Q_1, which the suffix search must skip.
	got, err := UniqueNames([]string{"Q", "Q 1", "Q"}, MaxLength)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q", "Q_1", "Q_2"}, got)
}

func TestUniqueNames_TruncatesBaseForSuffix(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 70)
	got, err := UniqueNames([]string{long, long}, 64)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 64, utf8.RuneCountInString(got[0]))
	assert.Equal(t, strings.Repeat("a", 62)+"_1", got[1])
}

func TestUniqueNames_PairwiseDistinct(t *testing.T) {
	t.Parallel()

	names := []string{"x", "x", "x_1", "X", "x 2", "x", "", "", "1", "v_1"}
	got, err := UniqueNames(names, 8)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "duplicate %q", id)
		seen[id] = true
	}
}

func TestUniqueNames_Overflow(t *testing.T) {
	t.Parallel()

	// With room for a single base rune, counters past 9 no longer fit.
	names := make([]string, 12)
	for i := range names {
		names[i] = "abc"
	}

	_, err := UniqueNames(names, 3)
	require.Error(t, err)

	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "abc", ce.Original)
	assert.Equal(t, "abc", ce.Base)
	assert.NotEmpty(t, ce.Conflicts)
	assert.Contains(t, err.Error(), "abc")
}

func TestUniqueNames_OverflowListsSuffixHolders(t *testing.T) {
	t.Parallel()

	names := []string{"Q_1", "Q_2", "Q_3", "Q_4", "Q_5", "Q_6", "Q_7", "Q_8", "Q_9", "Q", "Q"}
	_, err := UniqueNames(names, 3)

	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Q", ce.Original)
	assert.Equal(t, []string{"Q", "Q_1", "Q_2", "Q_3", "Q_4", "Q_5", "Q_6", "Q_7", "Q_8", "Q_9"}, ce.Conflicts)
}

func TestUniqueNamesReserving(t *testing.T) {
	t.Parallel()

	s := DefaultSanitizer()
	got, err := s.UniqueNamesReserving([]string{"Q1", "Q 2", "Other"}, map[string]string{"Q1": "A", "Q_2": "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1_1", "Q_2_1", "Other"}, got)

	plain, err := s.UniqueNamesReserving([]string{"Q1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1"}, plain)
}

func TestNameMap(t *testing.T) {
	t.Parallel()

	m := NameMap([]string{"A b", "A b", "C"}, []string{"A_b", "A_b_1", "C"})
	assert.Equal(t, map[string]string{"A b": "A_b", "C": "C"}, m)
}
