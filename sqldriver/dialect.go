// Package sqldriver implements the SQL driver boundary (spec §6): the
// effectful collaborator that renders a planner Fragment into a concrete
// dialect's bind-parameter syntax, executes it over database/sql, and
// decodes the result set back into a rowcursor.Table. None of this is core
// (it is explicitly out of scope per §1), but it is the thin shell the core
// is planned and tested against, adapted from the teacher's own
// sql/stringifiers/dialects/postgresql.go placeholder/identifier
// conventions and graph/marshal/postgresql.go's driver-value handling.
package sqldriver

import (
	"strconv"
	"strings"
)

// Dialect renders a Fragment's placeholder-agnostic `?` markers and bare
// identifiers into the syntax a specific SQL driver expects.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	QuoteIdentifier(identifier string) string
}

// Postgres is the lib/pq-compatible dialect: `$N` placeholders,
// double-quoted identifiers.
type Postgres struct{}

func (Postgres) Name() string { return "postgresql" }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
