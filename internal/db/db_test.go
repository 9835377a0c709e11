package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_File(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn, err := OpenSQLite(ctx, Target{Path: filepath.Join(t.TempDir(), "survey.db")})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO t VALUES (1), (2)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpenSQLite_NoPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite(context.Background(), Target{})
	assert.Error(t, err)
}

func TestParseClickHouseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Target
	}{
		{"tcp://user:pw@localhost:9000/survey", Target{Addr: "localhost:9000", Database: "survey", Username: "user", Password: "pw"}},
		{"tcp://localhost:9000", Target{Addr: "localhost:9000", Database: "default", Username: "default"}},
		{"ch.internal:9440", Target{Addr: "ch.internal:9440", Database: "default", Username: "default"}},
	}
	for _, tc := range cases {
		got, err := ParseClickHouseURL(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestConnectClickHouse_Lazy(t *testing.T) {
	t.Parallel()

	// OpenDB does not dial until first use
	target, err := ParseClickHouseURL("tcp://user:pw@localhost:9000/survey")
	require.NoError(t, err)
	conn := ConnectClickHouse(target)
	assert.NoError(t, conn.Close())
}

func TestParseSQLiteURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "survey.db", ParseSQLiteURL("sqlite://survey.db").Path)
	assert.Equal(t, ":memory:", ParseSQLiteURL("sqlite://:memory:").Path)
	assert.Equal(t, "/tmp/x.db", ParseSQLiteURL("file:///tmp/x.db").Path)
	assert.Equal(t, "plain.db", ParseSQLiteURL("plain.db").Path)
}
