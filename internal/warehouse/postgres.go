package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixperk/spssprep/internal/db"
)

func init() {
	register(openPostgres, "postgres", "postgresql")
}

type postgresSink struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, url string) (Sink, error) {
	pool, err := db.GetPostgresPool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &postgresSink{pool: pool}, nil
}

func (s *postgresSink) Dialect() Dialect { return Postgres }

func (s *postgresSink) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *postgresSink) CreateTable(ctx context.Context, spec TableSpec, replace bool) error {
	ddl, err := CreateTableSQL(Postgres, spec)
	if err != nil {
		return err
	}
	if replace {
		if _, err := s.pool.Exec(ctx, DropTableSQL(spec.Name)); err != nil {
			return fmt.Errorf("drop %s: %w", spec.Name, err)
		}
	}
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Insert streams rows with the COPY protocol
func (s *postgresSink) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	return err
}

// Close is a no-op; pools are shared and closed with db.CloseAllPools
func (s *postgresSink) Close() error { return nil }
