package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

type Dialect string

const (
	Postgres   Dialect = "postgres"
	ClickHouse Dialect = "clickhouse"
	SQLite     Dialect = "sqlite"
)

// ColumnType is the portable type of a published column
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeFloat
)

var columnTypes = map[Dialect]map[ColumnType]string{
	Postgres: {
		TypeText:    "TEXT",
		TypeInteger: "BIGINT",
		TypeFloat:   "DOUBLE PRECISION",
	},
	ClickHouse: {
		TypeText:    "Nullable(String)",
		TypeInteger: "Nullable(Int64)",
		TypeFloat:   "Nullable(Float64)",
	},
	SQLite: {
		TypeText:    "TEXT",
		TypeInteger: "INTEGER",
		TypeFloat:   "REAL",
	},
}

// TypeName returns the dialect's SQL type for t
func (d Dialect) TypeName(t ColumnType) string {
	return columnTypes[d][t]
}

type ColumnSpec struct {
	Name string
	Type ColumnType
}

type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidTableName restricts table names to plain identifiers. Column names
// come from survey headers and are always quoted instead.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// QuoteIdentifier wraps an identifier in double quotes, doubling any inside
func QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for the dialect
func CreateTableSQL(d Dialect, t TableSpec) (string, error) {
	if !ValidTableName(t.Name) {
		return "", fmt.Errorf("invalid table name: %q", t.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", t.Name)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = QuoteIdentifier(c.Name) + " " + d.TypeName(c.Type)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", QuoteIdentifier(t.Name), strings.Join(defs, ",\n  "))
	if d == ClickHouse {
		ddl += " ENGINE = MergeTree() ORDER BY tuple()"
	}
	return ddl, nil
}

func DropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + QuoteIdentifier(name)
}

// InsertSQL renders a multi-row INSERT with ? placeholders
func InsertSQL(table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		QuoteIdentifier(table), strings.Join(quoted, ", "), buildValuesPlaceholders(rowCount, len(columns)))
}

func buildValuesPlaceholders(rowCount, colCount int) string {
	var builder strings.Builder
	builder.Grow(rowCount * (colCount*3 + 4))

	for i := 0; i < rowCount; i++ {
		builder.WriteString("(")
		for j := 0; j < colCount; j++ {
			builder.WriteString("?")
			if j < colCount-1 {
				builder.WriteString(", ")
			}
		}
		builder.WriteString(")")
		if i < rowCount-1 {
			builder.WriteString(", ")
		}
	}
	return builder.String()
}

func flatten(matrix [][]any) []any {
	out := make([]any, 0, len(matrix)*8)
	for _, row := range matrix {
		out = append(out, row...)
	}
	return out
}
