// Package syntax renders the SPSS command file that loads a recoded table
// and attaches value labels to its codes.
package syntax

import (
	"fmt"
	"strings"

	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/table"
	"github.com/pixperk/spssprep/internal/textsafe"
)

const (
	ToolName           = "spssprep"
	DefaultDatasetName = "DataSet1"
)

// Variable is one column of the recoded table as the script sees it
type Variable struct {
	Name string
	// Original is the source column name, used for VARIABLE LABELS
	Original string
	Format   table.Format
	// Mapping is empty for columns without value labels
	Mapping encoding.Mapping
}

// Source points at the recoded data file
type Source struct {
	Path   string
	Sheet  string
	Format table.FileFormat
}

type Options struct {
	IncludeSave bool
	// SavePath is the .sav target; defaults to Source.Path with a .sav extension
	SavePath    string
	DatasetName string
}

// FromResult lists the variables of an encoding result in output order
func FromResult(res *encoding.Result) []Variable {
	vars := make([]Variable, 0, len(res.Identifiers))
	for i, id := range res.Identifiers {
		vars = append(vars, Variable{
			Name:     id,
			Original: res.Originals[id],
			Format:   res.Table.Columns[i].Format,
			Mapping:  res.Mappings[id],
		})
	}
	return vars
}

// Generate builds the complete script. Blocks appear in a fixed order:
// header, GET DATA, VARIABLE LABELS, VALUE LABELS, SAVE.
func Generate(vars []Variable, src Source, opts Options) string {
	var b strings.Builder

	writeHeader(&b)
	writeGetData(&b, vars, src, opts)
	writeVariableLabels(&b, vars)
	b.WriteString(ValueLabels(vars))
	if opts.IncludeSave {
		writeSave(&b, src, opts)
	}
	return b.String()
}

func writeHeader(b *strings.Builder) {
	b.WriteString("* Encoding: UTF-8.\n")
	fmt.Fprintf(b, "* Generated by %s. Answers are stored as integer codes labelled with their original text.\n\n", ToolName)
}

func writeGetData(b *strings.Builder, vars []Variable, src Source, opts Options) {
	name := opts.DatasetName
	if name == "" {
		name = DefaultDatasetName
	}

	b.WriteString("GET DATA\n")
	if src.Format == table.FormatCSV {
		b.WriteString("  /TYPE=TXT\n")
		fmt.Fprintf(b, "  /FILE='%s'\n", textsafe.EscapePath(src.Path))
		b.WriteString("  /ENCODING='UTF8'\n")
		b.WriteString("  /DELIMITERS=\",\"\n")
		b.WriteString("  /QUALIFIER='\"'\n")
		b.WriteString("  /ARRANGEMENT=DELIMITED\n")
		b.WriteString("  /FIRSTCASE=2\n")
		b.WriteString("  /VARIABLES=")
		for _, v := range vars {
			fmt.Fprintf(b, "\n    %s %s", v.Name, spssFormat(v.Format))
		}
		b.WriteString(".\n")
	} else {
		sheet := src.Sheet
		if sheet == "" {
			sheet = table.DefaultSheet
		}
		b.WriteString("  /TYPE=XLSX\n")
		fmt.Fprintf(b, "  /FILE='%s'\n", textsafe.EscapePath(src.Path))
		fmt.Fprintf(b, "  /SHEET=name '%s'\n", textsafe.EscapeLabel(sheet))
		b.WriteString("  /CELLRANGE=FULL\n")
		b.WriteString("  /READNAMES=ON\n")
		b.WriteString("  /DATATYPEMIN PERCENTAGE=95.0.\n")
	}
	b.WriteString("EXECUTE.\n")
	fmt.Fprintf(b, "DATASET NAME %s WINDOW=FRONT.\n\n", name)
}

func spssFormat(f table.Format) string {
	switch f {
	case table.FormatInteger:
		return "F8.0"
	case table.FormatNumber:
		return "F8.2"
	}
	return "A255"
}

// writeVariableLabels restores the original question text for renamed columns
func writeVariableLabels(b *strings.Builder, vars []Variable) {
	var renamed []Variable
	for _, v := range vars {
		if v.Original != "" && v.Original != v.Name {
			renamed = append(renamed, v)
		}
	}
	if len(renamed) == 0 {
		return
	}

	b.WriteString("VARIABLE LABELS\n")
	for i, v := range renamed {
		if i > 0 {
			b.WriteString("  /")
		} else {
			b.WriteString("  ")
		}
		fmt.Fprintf(b, "%s '%s'", v.Name, textsafe.EscapeLabel(v.Original))
		if i == len(renamed)-1 {
			b.WriteString(".")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// ValueLabels renders the VALUE LABELS block for every variable with a
// non-empty mapping, in the order given. Codes within a variable ascend.
// The block has one "/" between variables and a single closing period;
// it is empty when no variable has labels.
func ValueLabels(vars []Variable) string {
	var b strings.Builder
	n := 0
	for _, v := range vars {
		if len(v.Mapping) == 0 {
			continue
		}
		if n == 0 {
			b.WriteString("VALUE LABELS\n")
			b.WriteString(v.Name)
		} else {
			b.WriteString("/" + v.Name)
		}
		b.WriteString("\n")
		for _, p := range v.Mapping.Pairs() {
			fmt.Fprintf(&b, "%d '%s'\n", p.Code, textsafe.EscapeLabel(p.Value))
		}
		n++
	}
	if n == 0 {
		return ""
	}
	b.WriteString(".\n\n")
	return b.String()
}

func writeSave(b *strings.Builder, src Source, opts Options) {
	path := opts.SavePath
	if path == "" {
		path = SavePathFor(src.Path)
	}
	fmt.Fprintf(b, "SAVE OUTFILE='%s'\n  /COMPRESSED.\n", textsafe.EscapePath(path))
}

// SavePathFor swaps the data file extension for .sav
func SavePathFor(dataPath string) string {
	ext := ""
	if i := strings.LastIndexByte(dataPath, '.'); i > strings.LastIndexAny(dataPath, `/\`) {
		ext = dataPath[i:]
	}
	return strings.TrimSuffix(dataPath, ext) + ".sav"
}
