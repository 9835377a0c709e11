package syntax

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
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

func countLines(block, line string) int {
	n := 0
	for _, l := range strings.Split(block, "\n") {
		if l == line {
			n++
		}
	}
	return n
}

func separators(block string) int {
	n := 0
	for _, l := range strings.Split(block, "\n") {
		if strings.HasPrefix(l, "/") {
			n++
		}
	}
	return n
}

func TestGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{column("Q1", "Low", "Medium", "High", "Low")}}
	res, err := encoding.Apply(tbl, []encoding.ColumnConfig{{
		Column: "Q1", Kind: encoding.Ordinal, Order: []string{"Low", "Medium", "High"},
		StartValue: 1, Direction: encoding.Ascending,
	}})
	require.NoError(t, err)

	script := Generate(FromResult(res), Source{Path: "encoded.xlsx", Sheet: "Sheet1", Format: table.FormatXLSX}, Options{})

	assert.Contains(t, script, "GET DATA\n  /TYPE=XLSX\n")
	assert.Contains(t, script, "/SHEET=name 'Sheet1'")
	assert.Contains(t, script, "VALUE LABELS\nQ1\n1 'Low'\n2 'Medium'\n3 'High'\n.\n")
	assert.NotContains(t, script, "SAVE OUTFILE")
	assert.NotContains(t, script, "VARIABLE LABELS")

	i := strings.Index(script, "GET DATA")
	j := strings.Index(script, "VALUE LABELS")
	assert.Less(t, i, j)
}

func TestValueLabels_MultiVariable(t *testing.T) {
	t.Parallel()

	vars := []Variable{
		{Name: "A", Mapping: encoding.Mapping{"yes": 1, "no": 2}},
		{Name: "B", Mapping: encoding.Mapping{"on": 0, "off": 1}},
	}
	block := ValueLabels(vars)

	assert.Equal(t, 1, separators(block))
	assert.Equal(t, 1, countLines(block, "."))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(block), "."))
	assert.Equal(t, "VALUE LABELS\nA\n1 'yes'\n2 'no'\n/B\n0 'on'\n1 'off'\n.\n\n", block)
}

func TestValueLabels_StructureIndependentOfSize(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 5, 12} {
		vars := make([]Variable, n)
		for i := range vars {
			m := encoding.Mapping{}
			for k := 0; k <= i; k++ {
				m[strings.Repeat("v", k+1)] = k
			}
			vars[i] = Variable{Name: "c" + strings.Repeat("x", i), Mapping: m}
		}
		block := ValueLabels(vars)
		assert.Equal(t, n-1, separators(block), "n=%d", n)
		assert.Equal(t, 1, countLines(block, "."), "n=%d", n)
	}
}

func TestValueLabels_SkipsEmptyAndKeepsCallerOrder(t *testing.T) {
	t.Parallel()

	vars := []Variable{
		{Name: "Z", Mapping: encoding.Mapping{"z": 1}},
		{Name: "Age", Format: table.FormatNumber},
		{Name: "A", Mapping: encoding.Mapping{"a": 1}},
	}
	block := ValueLabels(vars)
	assert.Less(t, strings.Index(block, "\nZ\n"), strings.Index(block, "/A\n"))
	assert.NotContains(t, block, "Age")
}

func TestValueLabels_EmptyWhenNothingMapped(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ValueLabels([]Variable{{Name: "Age"}}))
	script := Generate([]Variable{{Name: "Age"}}, Source{Path: "x.xlsx"}, Options{})
	assert.NotContains(t, script, "VALUE LABELS")
}

func TestValueLabels_EscapesLabels(t *testing.T) {
	t.Parallel()

	vars := []Variable{{Name: "Q", Mapping: encoding.Mapping{"Don't know": 1, "\u200fنعم\u200e": 2}}}
	block := ValueLabels(vars)
	assert.Contains(t, block, "1 'Don''t know'\n")
	assert.Contains(t, block, "2 'نعم'\n")
	assert.NotContains(t, block, "\u200f")
}

func TestValueLabels_MultiLineAnswers(t *testing.T) {
	t.Parallel()

	vars := []Variable{
		{Name: "Q", Original: "How was it?\nPick one", Mapping: encoding.Mapping{"Bad": 1, "Very\ngood": 2, "Ok\r\nfine": 3}},
	}
	script := Generate(vars, Source{Path: "out.xlsx"}, Options{})

	assert.Contains(t, script, "VALUE LABELS\nQ\n1 'Bad'\n2 'Very good'\n3 'Ok fine'\n.\n")
	assert.Contains(t, script, "  Q 'How was it? Pick one'.\n")
	for _, line := range strings.Split(script, "\n") {
		assert.Equal(t, 0, strings.Count(line, "'")%2, "unbalanced quote in %q", line)
	}
}

func TestGenerate_SingleValueLabelsKeyword(t *testing.T) {
	t.Parallel()

	vars := []Variable{{Name: "Q", Mapping: encoding.Mapping{"a": 1}}}
	script := Generate(vars, Source{Path: "out.xlsx"}, Options{IncludeSave: true})
	assert.Equal(t, 1, strings.Count(script, "VALUE LABELS"))
}

func TestGenerate_VariableLabelsForRenamed(t *testing.T) {
	t.Parallel()

	vars := []Variable{
		{Name: "Price_$", Original: "Price ($)"},
		{Name: "Q1", Original: "Q1"},
		{Name: "v_50_complete", Original: "50% complete"},
	}
	script := Generate(vars, Source{Path: "out.xlsx"}, Options{})
	assert.Contains(t, script, "VARIABLE LABELS\n  Price_$ 'Price ($)'\n  /v_50_complete '50% complete'.\n")
}

func TestGenerate_CSVSource(t *testing.T) {
	t.Parallel()

	vars := []Variable{
		{Name: "ID"},
		{Name: "Age", Format: table.FormatNumber},
		{Name: "Q", Format: table.FormatInteger, Mapping: encoding.Mapping{"a": 1}},
	}
	script := Generate(vars, Source{Path: "out.csv", Format: table.FormatCSV}, Options{})
	assert.Contains(t, script, "/TYPE=TXT")
	assert.Contains(t, script, "/FIRSTCASE=2")
	assert.Contains(t, script, "/VARIABLES=\n    ID A255\n    Age F8.2\n    Q F8.0.\n")
	assert.NotContains(t, script, "/SHEET")
}

func TestGenerate_Save(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := filepath.Join(dir, "encoded.xlsx")
	vars := []Variable{{Name: "Q", Mapping: encoding.Mapping{"a": 1}}}

	script := Generate(vars, Source{Path: data}, Options{IncludeSave: true})
	assert.Contains(t, script, "SAVE OUTFILE='"+filepath.Join(dir, "encoded.sav"))
	assert.True(t, strings.HasSuffix(script, "/COMPRESSED.\n"))
	assert.Greater(t, strings.Index(script, "SAVE OUTFILE"), strings.Index(script, "VALUE LABELS"))

	script = Generate(vars, Source{Path: data}, Options{IncludeSave: true, SavePath: filepath.Join(dir, "final.sav")})
	assert.Contains(t, script, "final.sav'")
}

func TestSavePathFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "out/data.sav", SavePathFor("out/data.xlsx"))
	assert.Equal(t, "out.d/data.sav", SavePathFor("out.d/data"))
	assert.Equal(t, "data.sav", SavePathFor("data.csv"))
}

func TestGenerate_RoundTripFromDetectedOrder(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{
		column("Q1", "b", "a", "b", "c", ""),
		column("Q2", "x", "y", "x", "x", "y"),
	}}
	meta := detect.Detect(tbl)
	configs := []encoding.ColumnConfig{
		{Column: "Q1", Kind: encoding.Nominal, Order: meta["Q1"].Values, StartValue: 1},
		{Column: "Q2", Kind: encoding.Nominal, Order: meta["Q2"].Values, StartValue: 5, Direction: encoding.Descending},
	}
	res, err := encoding.Apply(tbl, configs)
	require.NoError(t, err)

	block := ValueLabels(FromResult(res))
	for i, col := range res.Table.Columns {
		produced := map[string]bool{}
		for _, c := range col.Cells {
			if c.Valid {
				produced[c.Text] = true
			}
		}
		for code := range produced {
			assert.Equal(t, 1, countPrefix(block, code+" '"), "column %d code %s", i, code)
		}
	}
	assert.Equal(t, 1, separators(block))
	assert.Equal(t, 1, countLines(block, "."))
}

func countPrefix(block, prefix string) int {
	n := 0
	for _, l := range strings.Split(block, "\n") {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
