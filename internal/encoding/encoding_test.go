package encoding

import (
	"errors"
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

func texts(col table.Column) []string {
	out := make([]string, len(col.Cells))
	for i, c := range col.Cells {
		if c.Valid {
			out[i] = c.Text
		}
	}
	return out
}

func TestMapping_Ascending(t *testing.T) {
	t.Parallel()

	m := ColumnConfig{Column: "Q", Kind: Ordinal, Order: []string{"Low", "Medium", "High"}, StartValue: 1, Direction: Ascending}.Mapping()
	assert.Equal(t, Mapping{"Low": 1, "Medium": 2, "High": 3}, m)
}

func TestMapping_Descending(t *testing.T) {
	t.Parallel()

	m := ColumnConfig{Column: "Q", Kind: Ordinal, Order: []string{"Low", "Medium", "High"}, StartValue: 0, Direction: Descending}.Mapping()
	assert.Equal(t, Mapping{"Low": 2, "Medium": 1, "High": 0}, m)
}

func TestMapping_DirectionAndKindAliases(t *testing.T) {
	t.Parallel()

	desc := ColumnConfig{Column: "Q", Kind: "Likert", Order: []string{"Low", "High"}, StartValue: 1, Direction: "desc"}
	require.NoError(t, desc.Validate())
	assert.Equal(t, Mapping{"Low": 2, "High": 1}, desc.Mapping())

	asc := ColumnConfig{Column: "Q", Kind: "NOMINAL", Order: []string{"Low", "High"}, StartValue: 1, Direction: "ASC"}
	require.NoError(t, asc.Validate())
	assert.Equal(t, Mapping{"Low": 1, "High": 2}, asc.Mapping())
}

func TestMapping_Endpoints(t *testing.T) {
	t.Parallel()

	order := []string{"a", "b", "c", "d", "e"}
	for _, start := range []int{0, 1, 7} {
		asc := ColumnConfig{Kind: Nominal, Order: order, StartValue: start, Direction: Ascending}.Mapping()
		desc := ColumnConfig{Kind: Nominal, Order: order, StartValue: start, Direction: Descending}.Mapping()

		assert.Equal(t, start, asc["a"])
		assert.Equal(t, start+len(order)-1, asc["e"])
		assert.Equal(t, start+len(order)-1, desc["a"])
		assert.Equal(t, start, desc["e"])

		codes := map[int]bool{}
		for _, c := range asc {
			codes[c] = true
		}
		assert.Len(t, codes, len(order), "codes are distinct")
	}
}

func TestMapping_ScaleAndIgnoreEmpty(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{Scale, Ignore} {
		m := ColumnConfig{Kind: k, Order: []string{"a", "b"}, StartValue: 1}.Mapping()
		assert.Empty(t, m, string(k))
	}
}

func TestMapping_PairsSortedByCode(t *testing.T) {
	t.Parallel()

	m := ColumnConfig{Kind: Ordinal, Order: []string{"x", "y", "z"}, StartValue: 1, Direction: Descending}.Mapping()
	assert.Equal(t, []Pair{{"z", 1}, {"y", 2}, {"x", 3}}, m.Pairs())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  ColumnConfig
		ok   bool
	}{
		{"valid", ColumnConfig{Column: "Q", Kind: Ordinal, Order: []string{"a", "b"}, StartValue: 1}, true},
		{"negative start", ColumnConfig{Column: "Q", Kind: Ordinal, StartValue: -1}, false},
		{"duplicate value", ColumnConfig{Column: "Q", Kind: Nominal, Order: []string{"a", "a"}}, false},
		{"likert alias", ColumnConfig{Column: "Q", Kind: "likert", Direction: "desc"}, true},
		{"mixed case", ColumnConfig{Column: "Q", Kind: "Nominal", Direction: "Descending"}, true},
		{"unknown kind", ColumnConfig{Column: "Q", Kind: "likely"}, false},
		{"unknown direction", ColumnConfig{Column: "Q", Kind: Ordinal, Direction: "sideways"}, false},
		{"bad missing policy", ColumnConfig{Column: "Q", Kind: Ordinal, Missing: "zero"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "Q", ce.Column)
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind(" Likert ")
	require.NoError(t, err)
	assert.Equal(t, Ordinal, k)

	_, err = ParseKind("interval")
	assert.Error(t, err)
}

func TestApply_RecodesWithRepeats(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Sat", "Low", "Medium", "High", "Low")}}
	res, err := Apply(tbl, []ColumnConfig{{
		Column: "Sat", Kind: Ordinal, Order: []string{"Low", "Medium", "High"}, StartValue: 1, Direction: Ascending,
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "1"}, texts(res.Table.Columns[0]))
	assert.Equal(t, table.FormatInteger, res.Table.Columns[0].Format)
	assert.Equal(t, Mapping{"Low": 1, "Medium": 2, "High": 3}, res.Mappings["Sat"])
}

func TestApply_MissingStaysMissing(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q", "Low", "", "High")}}
	res, err := Apply(tbl, []ColumnConfig{{Column: "Q", Kind: Ordinal, Order: []string{"Low", "High"}, StartValue: 1}})
	require.NoError(t, err)

	cells := res.Table.Columns[0].Cells
	assert.Equal(t, table.Int(1), cells[0])
	assert.False(t, cells[1].Valid)
	assert.Equal(t, table.Int(2), cells[2])
	assert.Empty(t, res.Diagnostics.Misses)
}

func TestApply_UnmappedValueCounted(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q", "Yes", "No", "Maybe", "Maybe", "Unsure")}}
	res, err := Apply(tbl, []ColumnConfig{{Column: "Q", Kind: Nominal, Order: []string{"Yes", "No"}, StartValue: 1, Identifier: "q_yes"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "", "", ""}, texts(res.Table.Columns[0]))
	miss, ok := res.Diagnostics.Misses["q_yes"]
	require.True(t, ok)
	assert.Equal(t, 3, miss.Count)
	assert.Equal(t, []string{"Maybe", "Unsure"}, miss.Values)
	assert.Equal(t, 3, res.Diagnostics.TotalMisses())
}

func TestApply_ResolvesAliases(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q", "Low", "High", "Low")}}
	res, err := Apply(tbl, []ColumnConfig{{Column: "Q", Kind: "likert", Order: []string{"Low", "High"}, StartValue: 1, Direction: "desc"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "1", "2"}, texts(res.Table.Columns[0]))
	assert.Equal(t, table.FormatInteger, res.Table.Columns[0].Format)
	assert.Equal(t, Mapping{"Low": 2, "High": 1}, res.Mappings["Q"])
}

func TestApply_UnconfiguredAndScale(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{
		column("ID", "1", "2"),
		column("Age", "31", "45"),
		column("Q", "a", "b"),
	}}
	res, err := Apply(tbl, []ColumnConfig{
		{Column: "Age", Kind: Scale},
		{Column: "Q", Kind: Nominal, Order: []string{"a", "b"}, Identifier: "Q_1"},
		{Column: "Gone", Kind: Ignore},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Age", "Q_1"}, res.Identifiers)
	assert.Equal(t, table.FormatText, res.Table.Columns[0].Format)
	assert.Equal(t, table.FormatNumber, res.Table.Columns[1].Format)
	assert.Equal(t, []string{"31", "45"}, texts(res.Table.Columns[1]))
	assert.Equal(t, []string{"0", "1"}, texts(res.Table.Columns[2]))
	assert.Equal(t, "Q", res.Originals["Q_1"])
	assert.Equal(t, []string{"ID"}, res.Diagnostics.Unconfigured)
	assert.Equal(t, []string{"Gone"}, res.Diagnostics.Stale)
	assert.NotContains(t, res.Mappings, "Age")
}

func TestApply_DuplicateIdentifier(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("A", "x"), column("B", "y")}}
	_, err := Apply(tbl, []ColumnConfig{
		{Column: "A", Kind: Ignore, Identifier: "same"},
		{Column: "B", Kind: Ignore, Identifier: "same"},
	})
	assert.Error(t, err)
}

func TestApply_InvalidConfig(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("A", "x")}}
	_, err := Apply(tbl, []ColumnConfig{{Column: "A", Kind: Ordinal, StartValue: -3}})
	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q", "Low", "High", "Other")}}
	before := tbl.Clone()

	_, err := Apply(tbl, []ColumnConfig{{Column: "Q", Kind: Ordinal, Order: []string{"Low", "High"}, Identifier: "q"}})
	require.NoError(t, err)
	assert.Equal(t, before, tbl)
}

func BenchmarkApply(b *testing.B) {
	order := []string{"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree"}
	values := make([]string, 10000)
	for i := range values {
		values[i] = order[i%len(order)]
	}
	tbl := &table.Table{}
	configs := make([]ColumnConfig, 0, 20)
	for c := 0; c < 20; c++ {
		name := fmt.Sprintf("Q%d", c)
		tbl.Columns = append(tbl.Columns, column(name, values...))
		configs = append(configs, ColumnConfig{Column: name, Kind: Ordinal, Order: order, StartValue: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Apply(tbl, configs); err != nil {
			b.Fatal(err)
		}
	}
}
