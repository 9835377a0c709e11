package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileFormat is the container of a table on disk
type FileFormat string

const (
	FormatXLSX FileFormat = "xlsx"
	FormatCSV  FileFormat = "csv"
)

// DetectFormat maps a file extension to a FileFormat
func DetectFormat(path string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
}

type ReadOptions struct {
	// Sheet to read from a workbook; the first sheet when empty
	Sheet string
	// Delimiter for CSV input; sniffed from the header line when zero
	Delimiter rune
	// Encoding names the CSV text encoding (any WHATWG label). When empty a
	// BOM is honoured, valid UTF-8 is kept and anything else is read as
	// Windows-1252.
	Encoding string
}

// Read loads a table from path, choosing the reader by extension
func Read(path string, opts ReadOptions) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV && opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Delimiter = '\t'
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadFrom(f, path, format, opts)
}

// ReadFrom loads a table of the given format from r. source names the input
// in errors.
func ReadFrom(r io.Reader, source string, format FileFormat, opts ReadOptions) (*Table, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r, source, opts)
	case FormatCSV:
		return readCSV(r, source, opts)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func readXLSX(r io.Reader, source string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ShapeError{Source: source, Reason: "not a readable workbook: " + err.Error()}
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ShapeError{Source: source, Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &ShapeError{Source: source, Reason: fmt.Sprintf("sheet %q not found", sheet)}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ShapeError{Source: source, Reason: err.Error()}
	}

	for len(rows) > 0 && isBlankRecord(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, &ShapeError{Source: source, Reason: fmt.Sprintf("sheet %q is empty", sheet)}
	}

	header := rows[0]
	// GetRows trims trailing empty cells, so data rows may be longer than a
	// header with blank trailing titles; widen the header to match.
	width := len(header)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}

	return FromRecords(source, header, rows[1:])
}

func readCSV(r io.Reader, source string, opts ReadOptions) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	text, err := decodeText(raw, opts.Encoding)
	if err != nil {
		return nil, &ShapeError{Source: source, Reason: err.Error()}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(text)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ShapeError{Source: source, Row: pe.StartLine, Reason: pe.Err.Error()}
		}
		return nil, &ShapeError{Source: source, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ShapeError{Source: source, Reason: "file is empty"}
	}

	return FromRecords(source, records[0], records[1:])
}

// decodeText converts CSV bytes to UTF-8
func decodeText(raw []byte, name string) ([]byte, error) {
	var fallback encoding.Encoding
	switch {
	case name != "":
		enc, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q", name)
		}
		fallback = enc
	case utf8.Valid(raw) || hasUTF16BOM(raw):
		fallback = unicode.UTF8
	default:
		fallback = charmap.Windows1252
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), raw)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF))
}

// sniffDelimiter picks the most frequent of , ; and tab on the header line,
// ignoring quoted text.
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}

	best := ','
	for _, r := range []rune{';', '\t'} {
		if counts[r] > counts[best] {
			best = r
		}
	}
	return best
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
