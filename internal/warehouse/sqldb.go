package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pixperk/spssprep/internal/db"
)

func init() {
	register(openClickHouse, "clickhouse", "tcp")
	register(openSQLite, "sqlite", "file")
}

// sqlSink serves the database/sql backends
type sqlSink struct {
	db      *sql.DB
	dialect Dialect
	// maxParams bounds placeholders per statement, 0 for no bound
	maxParams int
	// useTx wraps each Insert in a transaction; ClickHouse has none
	useTx bool
	owned bool
}

func openClickHouse(ctx context.Context, url string) (Sink, error) {
	if strings.HasPrefix(url, "clickhouse://") {
		url = "tcp://" + strings.TrimPrefix(url, "clickhouse://")
	}
	conn, err := db.GetClickHousePool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	return &sqlSink{db: conn, dialect: ClickHouse}, nil
}

// openSQLite takes sqlite://path, sqlite://:memory: or file:path
func openSQLite(ctx context.Context, url string) (Sink, error) {
	conn, err := db.OpenSQLite(ctx, db.ParseSQLiteURL(url))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &sqlSink{db: conn, dialect: SQLite, maxParams: 30000, useTx: true, owned: true}, nil
}

func (s *sqlSink) Dialect() Dialect { return s.dialect }

func (s *sqlSink) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlSink) CreateTable(ctx context.Context, spec TableSpec, replace bool) error {
	ddl, err := CreateTableSQL(s.dialect, spec)
	if err != nil {
		return err
	}
	if replace {
		if _, err := s.db.ExecContext(ctx, DropTableSQL(spec.Name)); err != nil {
			return fmt.Errorf("drop %s: %w", spec.Name, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *sqlSink) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	step := len(rows)
	if s.maxParams > 0 && len(columns) > 0 {
		step = max(1, s.maxParams/len(columns))
	}

	if !s.useTx {
		for i := 0; i < len(rows); i += step {
			end := min(i+step, len(rows))
			if _, err := s.db.ExecContext(ctx, InsertSQL(table, columns, end-i), flatten(rows[i:end])...); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i := 0; i < len(rows); i += step {
		end := min(i+step, len(rows))
		if _, err := tx.ExecContext(ctx, InsertSQL(table, columns, end-i), flatten(rows[i:end])...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlSink) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
