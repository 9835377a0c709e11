// Package warehouse publishes recoded survey data and its codebook to a SQL
// database. Postgres, ClickHouse and SQLite are supported.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Sink is one open database connection able to take published tables
type Sink interface {
	Dialect() Dialect
	Ping(ctx context.Context) error
	// CreateTable creates spec if missing. With replace an existing table
	// is dropped first.
	CreateTable(ctx context.Context, spec TableSpec, replace bool) error
	// Insert writes rows whose values line up with columns
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Close() error
}

type opener func(ctx context.Context, url string) (Sink, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]opener{}
)

// register binds URL schemes to an opener. Registering a scheme twice panics.
func register(o opener, schemes ...string) {
	openersMu.Lock()
	defer openersMu.Unlock()
	for _, s := range schemes {
		if _, dup := openers[s]; dup {
			panic("warehouse: scheme registered twice: " + s)
		}
		openers[s] = o
	}
}

// Schemes lists the URL schemes Open understands
func Schemes() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]string, 0, len(openers))
	for s := range openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open connects to the warehouse named by url, choosing the backend by scheme
func Open(ctx context.Context, url string) (Sink, error) {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("warehouse url %q has no scheme (want one of %s)", url, strings.Join(Schemes(), ", "))
	}

	openersMu.RLock()
	o, found := openers[strings.ToLower(scheme)]
	openersMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("unsupported warehouse scheme %q (want one of %s)", scheme, strings.Join(Schemes(), ", "))
	}
	return o(ctx, url)
}
