package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/table"
)

func column(name string, format table.Format, values ...string) table.Column {
	cells := make([]table.Cell, len(values))
	for i, v := range values {
		if v == "" {
			cells[i] = table.Missing
			continue
		}
		cells[i] = table.Text(v)
	}
	return table.Column{Name: name, Cells: cells, Format: format}
}

func sampleDataset() Dataset {
	return Dataset{
		Table: &table.Table{Columns: []table.Column{
			column("ID", table.FormatText, "a1", "a2", "a3"),
			column("Sat", table.FormatInteger, "1", "", "3"),
			column("Age", table.FormatNumber, "31", "45.5", ""),
			column("Region \"main\"", table.FormatInteger, "2", "1", "1"),
		}},
		Mappings: map[string]encoding.Mapping{
			"Sat":            {"Low": 1, "Medium": 2, "High": 3},
			"Region \"main\"": {"North": 1, "South": 2},
		},
		Originals: map[string]string{"Sat": "Satisfaction"},
	}
}

func openTestSink(t *testing.T) Sink {
	t.Helper()
	sink, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "wh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func rawDB(t *testing.T, sink Sink) *sql.DB {
	t.Helper()
	s, ok := sink.(*sqlSink)
	require.True(t, ok)
	return s.db
}

func TestOpen_Schemes(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "no-scheme")
	assert.Error(t, err)
	_, err = Open(context.Background(), "mysql://x")
	assert.ErrorContains(t, err, "unsupported")
	assert.Equal(t, []string{"clickhouse", "file", "postgres", "postgresql", "sqlite", "tcp"}, Schemes())
}

func TestPublish_SQLite(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	ctx := context.Background()

	var batches int
	res, err := Publish(ctx, sink, sampleDataset(), Options{
		Table:     "survey",
		BatchSize: 2,
		OnBatch:   func(string, int, int) { batches++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 5, res.Labels)
	assert.Equal(t, "survey_labels", res.LabelsTable)
	assert.Equal(t, 5, batches, "two data batches and three label batches")

	conn := rawDB(t, sink)

	var sat sql.NullInt64
	var age sql.NullFloat64
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT "Sat", "Age" FROM survey WHERE "ID" = 'a2'`).Scan(&sat, &age))
	assert.False(t, sat.Valid)
	assert.Equal(t, 45.5, age.Float64)

	var region int64
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT "Region ""main""" FROM survey WHERE "ID" = 'a1'`).Scan(&region))
	assert.Equal(t, int64(2), region)

	rows, err := conn.QueryContext(ctx, `SELECT variable, original_name, code, label FROM survey_labels ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	var got [][]any
	for rows.Next() {
		var v, o, l string
		var c int64
		require.NoError(t, rows.Scan(&v, &o, &c, &l))
		got = append(got, []any{v, o, c, l})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][]any{
		{"Sat", "Satisfaction", int64(1), "Low"},
		{"Sat", "Satisfaction", int64(2), "Medium"},
		{"Sat", "Satisfaction", int64(3), "High"},
		{"Region \"main\"", "Region \"main\"", int64(1), "North"},
		{"Region \"main\"", "Region \"main\"", int64(2), "South"},
	}, got)
}

func TestPublish_ReplaceVersusAppend(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	ctx := context.Background()
	conn := rawDB(t, sink)

	count := func() int {
		var n int
		require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM survey`).Scan(&n))
		return n
	}

	_, err := Publish(ctx, sink, sampleDataset(), Options{Table: "survey"})
	require.NoError(t, err)
	_, err = Publish(ctx, sink, sampleDataset(), Options{Table: "survey"})
	require.NoError(t, err)
	assert.Equal(t, 6, count())

	_, err = Publish(ctx, sink, sampleDataset(), Options{Table: "survey", Replace: true})
	require.NoError(t, err)
	assert.Equal(t, 3, count())
}

func TestPublish_InvalidTableName(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	_, err := Publish(context.Background(), sink, sampleDataset(), Options{Table: "survey; DROP"})
	assert.Error(t, err)
}

func TestDataTableSpec_Types(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Columns: []table.Column{
		column("a", table.FormatInteger, "1"),
		column("b", table.FormatNumber, "1.5", ""),
		column("c", table.FormatNumber, "1.5", "n/a"),
		column("d", table.FormatText, "x"),
	}}
	spec := DataTableSpec("t", tbl)
	assert.Equal(t, []ColumnSpec{{"a", TypeInteger}, {"b", TypeFloat}, {"c", TypeText}, {"d", TypeText}}, spec.Columns)
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	spec := TableSpec{Name: "s", Columns: []ColumnSpec{{"Q 1", TypeInteger}, {"x", TypeText}}}

	ddl, err := CreateTableSQL(ClickHouse, spec)
	require.NoError(t, err)
	assert.Contains(t, ddl, `"Q 1" Nullable(Int64)`)
	assert.Contains(t, ddl, "ENGINE = MergeTree()")

	ddl, err = CreateTableSQL(Postgres, spec)
	require.NoError(t, err)
	assert.Contains(t, ddl, `"Q 1" BIGINT`)
	assert.NotContains(t, ddl, "ENGINE")

	_, err = CreateTableSQL(SQLite, TableSpec{Name: "bad-name", Columns: spec.Columns})
	assert.Error(t, err)
	_, err = CreateTableSQL(SQLite, TableSpec{Name: "empty"})
	assert.Error(t, err)
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES (?, ?), (?, ?)`, InsertSQL("t", []string{"a", "b"}, 2))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
}

func TestRetry(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Jitter: true}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	calls = 0
	err = Retry(context.Background(), cfg, func() error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}, func() error {
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
