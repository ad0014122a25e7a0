package sqlstore

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Name is the backend name (types.BackendSQLite, types.BackendPostgres).
	Name string

	// Driver is the database/sql driver name.
	Driver string

	// numbered reports whether placeholders are $1, $2, ... instead of ?.
	numbered bool
}

// Supported dialects.
var (
	SQLite   = Dialect{Name: types.BackendSQLite, Driver: "sqlite"}
	Postgres = Dialect{Name: types.BackendPostgres, Driver: "pgx", numbered: true}
)

// Rebind rewrites ? placeholders for the dialect. Queries in this package
// never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
