package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

var (
	pgPools = map[string]*pgxpool.Pool{}
	chPools = map[string]*sql.DB{}
	pgMux   sync.Mutex
	chMux   sync.Mutex
)

// GetPostgresPool returns a shared pool per URL, pinging it on first use
func GetPostgresPool(ctx context.Context, pgURL string) (*pgxpool.Pool, error) {
	pgMux.Lock()
	defer pgMux.Unlock()

	if pool, ok := pgPools[pgURL]; ok {
		return pool, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	pgPools[pgURL] = pool
	return pool, nil
}

// GetClickHousePool returns a shared handle per URL, pinging it on first use
func GetClickHousePool(ctx context.Context, chURL string) (*sql.DB, error) {
	chMux.Lock()
	defer chMux.Unlock()

	if pool, ok := chPools[chURL]; ok {
		return pool, nil
	}

	target, err := ParseClickHouseURL(chURL)
	if err != nil {
		return nil, err
	}
	conn := ConnectClickHouse(target)

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(1 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	chPools[chURL] = conn
	return conn, nil
}

// OpenSQLite opens t.Path with the pure-Go driver. The handle is not
// pooled: each call owns its connection and must close it.
func OpenSQLite(ctx context.Context, t Target) (*sql.DB, error) {
	if t.Path == "" {
		return nil, errors.New("sqlite target without a path")
	}
	conn, err := sql.Open("sqlite", t.Path)
	if err != nil {
		return nil, err
	}
	// one writer, and ":memory:" must stay on a single connection
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ClosePostgresPools() {
	pgMux.Lock()
	defer pgMux.Unlock()

	for url, pool := range pgPools {
		pool.Close()
		delete(pgPools, url)
	}
}

func CloseClickHousePools() {
	chMux.Lock()
	defer chMux.Unlock()

	for url, pool := range chPools {
		pool.Close()
		delete(chPools, url)
	}
}

func CloseAllPools() {
	ClosePostgresPools()
	CloseClickHousePools()
}
