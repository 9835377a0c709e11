package warehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/logx"
	"github.com/pixperk/spssprep/internal/table"
)

const DefaultBatchSize = 500

// LabelsSuffix is appended to the data table name for the codebook table
const LabelsSuffix = "_labels"

// Dataset is a recoded table with the labels of its codes
type Dataset struct {
	Table *table.Table
	// Mappings is keyed by column name in Table
	Mappings map[string]encoding.Mapping
	// Originals maps column name to the source header
	Originals map[string]string
}

// DatasetFromResult wraps an encoding result for publishing
func DatasetFromResult(res *encoding.Result) Dataset {
	return Dataset{Table: res.Table, Mappings: res.Mappings, Originals: res.Originals}
}

type Options struct {
	Table     string
	BatchSize int
	// Replace drops existing tables instead of appending to them
	Replace bool
	Retry   RetryConfig
	// OnBatch is called after each batch lands
	OnBatch func(table string, written, total int)
}

type PublishResult struct {
	Table       string
	LabelsTable string
	Rows        int
	Labels      int
}

// Publish creates the data and codebook tables and loads both in batches
func Publish(ctx context.Context, sink Sink, ds Dataset, opts Options) (*PublishResult, error) {
	if err := ds.Table.Validate(); err != nil {
		return nil, err
	}
	if !ValidTableName(opts.Table) {
		return nil, fmt.Errorf("invalid table name: %q", opts.Table)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetry
	}

	dataSpec := DataTableSpec(opts.Table, ds.Table)
	labelsSpec := LabelsTableSpec(opts.Table + LabelsSuffix)

	for _, spec := range []TableSpec{dataSpec, labelsSpec} {
		if err := sink.CreateTable(ctx, spec, opts.Replace); err != nil {
			return nil, err
		}
	}

	rows := DataRows(ds.Table, dataSpec)
	if err := insertBatches(ctx, sink, dataSpec, rows, opts); err != nil {
		return nil, err
	}

	labels := LabelRows(ds)
	if err := insertBatches(ctx, sink, labelsSpec, labels, opts); err != nil {
		return nil, err
	}

	return &PublishResult{
		Table:       dataSpec.Name,
		LabelsTable: labelsSpec.Name,
		Rows:        len(rows),
		Labels:      len(labels),
	}, nil
}

func insertBatches(ctx context.Context, sink Sink, spec TableSpec, rows [][]any, opts Options) error {
	columns := spec.ColumnNames()
	for i := 0; i < len(rows); i += opts.BatchSize {
		end := min(i+opts.BatchSize, len(rows))
		batch := rows[i:end]

		err := Retry(ctx, opts.Retry, func() error {
			return sink.Insert(ctx, spec.Name, columns, batch)
		})
		if err != nil {
			return fmt.Errorf("failed to insert rows into %s: %w", spec.Name, err)
		}

		logx.Logger.Debug("Inserted batch",
			zap.String("table", spec.Name),
			zap.Int("row_count", end-i),
			zap.Int("total_rows", len(rows)),
		)
		if opts.OnBatch != nil {
			opts.OnBatch(spec.Name, end, len(rows))
		}
	}
	return nil
}

// DataTableSpec types recoded columns as integers and numeric columns as
// floats when every present value parses; everything else is text.
func DataTableSpec(name string, t *table.Table) TableSpec {
	spec := TableSpec{Name: name, Columns: make([]ColumnSpec, len(t.Columns))}
	for i, col := range t.Columns {
		spec.Columns[i] = ColumnSpec{Name: col.Name, Type: columnType(col)}
	}
	return spec
}

func columnType(col table.Column) ColumnType {
	switch col.Format {
	case table.FormatInteger:
		return TypeInteger
	case table.FormatNumber:
		for _, c := range col.Cells {
			if !c.Valid {
				continue
			}
			if _, err := decimal.NewFromString(strings.TrimSpace(c.Text)); err != nil {
				return TypeText
			}
		}
		return TypeFloat
	}
	return TypeText
}

func LabelsTableSpec(name string) TableSpec {
	return TableSpec{Name: name, Columns: []ColumnSpec{
		{Name: "variable", Type: TypeText},
		{Name: "original_name", Type: TypeText},
		{Name: "code", Type: TypeInteger},
		{Name: "label", Type: TypeText},
	}}
}

// DataRows converts cells to driver values; missing cells become nil
func DataRows(t *table.Table, spec TableSpec) [][]any {
	rows := make([][]any, t.Rows())
	for r := range rows {
		row := make([]any, len(t.Columns))
		for c, col := range t.Columns {
			row[c] = cellValue(col.Cells[r], spec.Columns[c].Type)
		}
		rows[r] = row
	}
	return rows
}

func cellValue(c table.Cell, typ ColumnType) any {
	if !c.Valid {
		return nil
	}
	switch typ {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(c.Text), 10, 64)
		if err != nil {
			return nil
		}
		return n
	case TypeFloat:
		d, err := decimal.NewFromString(strings.TrimSpace(c.Text))
		if err != nil {
			return nil
		}
		return d.InexactFloat64()
	}
	return c.Text
}

// LabelRows lists (variable, original_name, code, label) in column order
// and ascending code
func LabelRows(ds Dataset) [][]any {
	var rows [][]any
	for _, col := range ds.Table.Columns {
		mapping, ok := ds.Mappings[col.Name]
		if !ok {
			continue
		}
		original := ds.Originals[col.Name]
		if original == "" {
			original = col.Name
		}
		for _, p := range mapping.Pairs() {
			rows = append(rows, []any{col.Name, original, int64(p.Code), p.Value})
		}
	}
	return rows
}
