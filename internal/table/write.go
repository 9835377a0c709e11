package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pixperk/spssprep/internal/fileutil"
)

// DefaultSheet is the sheet name written into recoded workbooks
const DefaultSheet = "Sheet1"

const maxColumnWidth = 50

type WriteOptions struct {
	// Sheet name for workbook output; DefaultSheet when empty
	Sheet string
}

// Write persists t to path atomically, choosing the writer by extension
func Write(path string, t *Table, opts WriteOptions) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteTo(w, t, format, opts)
	})
}

// WriteTo encodes t in the given format
func WriteTo(w io.Writer, t *Table, format FileFormat, opts WriteOptions) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, t, opts)
	case FormatCSV:
		return writeCSV(w, t)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeXLSX(w io.Writer, t *Table, opts WriteOptions) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheet, err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	for i, col := range t.Columns {
		if err := sw.SetColWidth(i+1, i+1, columnWidth(col)); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	rows := t.Rows()
	for r := 0; r < rows; r++ {
		values := make([]interface{}, len(t.Columns))
		for c, col := range t.Columns {
			values[c] = cellValue(col.Cells[r], col.Format)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// cellValue maps a cell to the Go value excelize should store
func cellValue(c Cell, format Format) interface{} {
	if !c.Valid {
		return nil
	}
	switch format {
	case FormatInteger:
		if n, err := strconv.Atoi(c.Text); err == nil {
			return n
		}
	case FormatNumber:
		if d, err := decimal.NewFromString(c.Text); err == nil {
			if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 15)) {
				return d.IntPart()
			}
			return d.InexactFloat64()
		}
	}
	return c.Text
}

func columnWidth(col Column) float64 {
	longest := utf8.RuneCountInString(col.Name)
	for _, c := range col.Cells {
		if n := utf8.RuneCountInString(c.Text); c.Valid && n > longest {
			longest = n
		}
	}
	return float64(min(longest+2, maxColumnWidth))
}

func writeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	rows := t.Rows()
	record := make([]string, len(t.Columns))
	for r := 0; r < rows; r++ {
		for c, col := range t.Columns {
			record[c] = col.Cells[r].Text
			if !col.Cells[r].Valid {
				record[c] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("could not write row %d: %w", r+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
