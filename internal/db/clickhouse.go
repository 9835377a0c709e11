package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const (
	DefaultClickHouseDatabase = "default"
	DefaultClickHouseUser     = "default"
)

// Target is a parsed warehouse location. ClickHouse targets use the network
// fields; SQLite targets only Path.
type Target struct {
	Addr     string
	Database string
	Username string
	Password string
	Path     string
	// DialTimeout bounds connection setup; zero means 5s
	DialTimeout time.Duration
}

// ParseClickHouseURL accepts clickhouse://, tcp:// and http:// URLs as well
// as a bare host:port. Database and user fall back to "default".
func ParseClickHouseURL(raw string) (Target, error) {
	t := Target{Database: DefaultClickHouseDatabase, Username: DefaultClickHouseUser}
	if !strings.Contains(raw, "://") {
		t.Addr = raw
		return t, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse clickhouse url: %w", err)
	}
	t.Addr = u.Host
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			t.Username = name
		}
		t.Password, _ = u.User.Password()
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		t.Database = name
	}
	return t, nil
}

// ParseSQLiteURL takes sqlite://path, sqlite://:memory:, file://path or a
// plain path
func ParseSQLiteURL(raw string) Target {
	for _, prefix := range []string{"sqlite://", "file://"} {
		if strings.HasPrefix(raw, prefix) {
			return Target{Path: strings.TrimPrefix(raw, prefix)}
		}
	}
	return Target{Path: raw}
}

func (t Target) dialTimeout() time.Duration {
	if t.DialTimeout > 0 {
		return t.DialTimeout
	}
	return 5 * time.Second
}

// ConnectClickHouse opens a lazily dialled handle. Published batches are
// compressed with LZ4 on the wire.
func ConnectClickHouse(t Target) *sql.DB {
	return clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{t.Addr},
		Auth: clickhouse.Auth{
			Database: t.Database,
			Username: t.Username,
			Password: t.Password,
		},
		DialTimeout: t.dialTimeout(),
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
}
