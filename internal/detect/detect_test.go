package detect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixperk/spssprep/internal/table"
)

func column(name string, values ...string) table.Column {
	cells := make([]table.Cell, len(values))
	for i, v := range values {
		if v == "" {
			cells[i] = table.Missing
			continue
		}
		cells[i] = table.Text(v)
	}
	return table.Column{Name: name, Cells: cells}
}

func TestDetect_Basic(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{
		column("Q1", "Agree", "Disagree", "Agree", "Neutral"),
		column("Q2", "Yes", "No", "Yes", "Yes"),
	}}

	info := Detect(tbl)

	require.Contains(t, info, "Q1")
	require.Contains(t, info, "Q2")
	assert.Equal(t, 3, info["Q1"].Distinct)
	assert.Equal(t, 2, info["Q2"].Distinct)
	assert.Equal(t, []string{"Yes", "No"}, info["Q2"].Values)
}

func TestDetect_MissingCount(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q1", "A", "", "B", "", "C")}}

	m := Detect(tbl)["Q1"]
	assert.Equal(t, 2, m.Missing)
	assert.Equal(t, 3, m.Present)
}

func TestColumn_TieBreakFirstAppearance(t *testing.T) {
	t.Parallel()

	m := Column(column("Q", "b", "a", "c", "a", "b", "d"))

	assert.Equal(t, []string{"b", "a", "c", "d"}, m.Values)
	assert.Equal(t, map[string]int{"a": 2, "b": 2, "c": 1, "d": 1}, m.Counts)
}

func TestColumn_NumericRatio(t *testing.T) {
	t.Parallel()

	m := Column(column("Age", "31", " 45 ", "1e3", "-2.5", "unknown", ""))

	assert.InDelta(t, 0.8, m.NumericRatio, 1e-9)
	assert.False(t, m.IsNumeric())

	m = Column(column("Score", "1", "2", "3", "4", "5"))
	assert.True(t, m.IsNumeric())
}

func TestColumn_AllMissing(t *testing.T) {
	t.Parallel()

	m := Column(column("Empty", "", ""))

	assert.Equal(t, 0, m.Distinct)
	assert.Equal(t, 2, m.Missing)
	assert.Zero(t, m.NumericRatio)
	assert.Equal(t, SuggestIgnore, Suggest(m))
}

func TestColumn_MultiResponse(t *testing.T) {
	t.Parallel()

	assert.True(t, Column(column("Q", "Red, Blue", "Green")).MultiResponse)
	assert.True(t, Column(column("Q", "Red;Blue")).MultiResponse)
	assert.False(t, Column(column("Q", "Red", "Blue")).MultiResponse)
}

func TestDetect_IdempotentAndPure(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{
		column("A", "x", "y", "y", "z", "x", ""),
		column("B", "1", "2", "", "2"),
		column("C", "p", "q", "r", "s"),
	}}
	before := tbl.Clone()

	first := DetectOrdered(tbl)
	second := DetectOrdered(tbl)

	assert.Equal(t, first, second)
	assert.Equal(t, before, tbl)
	assert.Equal(t, []string{"A", "B", "C"}, []string{first[0].Name, first[1].Name, first[2].Name})
}

func TestLooksLikeOrdinalScale(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeOrdinalScale([]string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}))
	assert.True(t, LooksLikeOrdinalScale([]string{"Never", "Rarely", "Sometimes", "Often", "Always"}))
	assert.True(t, LooksLikeOrdinalScale([]string{"Low", "Medium", "High"}))
	assert.True(t, LooksLikeOrdinalScale([]string{"  YES ", "x", "y"}))

	assert.False(t, LooksLikeOrdinalScale([]string{"Apple", "Banana", "Cherry"}))
	assert.False(t, LooksLikeOrdinalScale([]string{"Yes", "No"}))
	assert.False(t, LooksLikeOrdinalScale([]string{"A", "B", "C", "D", "E", "F", "G", "H"}))
	assert.False(t, LooksLikeOrdinalScale([]string{"Agree strongly", "x", "y"}))
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SuggestScale, Suggest(Column(column("Age", "20", "30", "40"))))
	assert.Equal(t, SuggestOrdinal, Suggest(Column(column("Q", "Low", "High", "Medium"))))
	assert.Equal(t, SuggestNominal, Suggest(Column(column("Fruit", "Apple", "Pear", "Apple"))))

	var stamps []string
	for i := 0; i < 60; i++ {
		stamps = append(stamps, fmt.Sprintf("2024/01/%02d 10:00", i))
	}
	assert.Equal(t, SuggestIgnore, Suggest(Column(column("Timestamp", stamps...))))
}
