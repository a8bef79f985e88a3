// Package dialect holds the small amount of SQL syntax that differs between the
// databases criteria queries run against.
package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect renders database-specific SQL fragments
type Dialect interface {
	// Name returns the database/sql driver name the dialect is used with
	Name() string

	// Placeholder returns the bind parameter for the n-th argument, starting at 1
	Placeholder(n int) string

	// NoLimit returns the LIMIT value meaning all rows, or "" when OFFSET may stand alone
	NoLimit() string
}

type postgres struct{}

func (postgres) Name() string { return "pgx" }

func (postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgres) NoLimit() string { return "" }

type sqlite struct{}

func (sqlite) Name() string { return "sqlite3" }

func (sqlite) Placeholder(int) string { return "?" }

// SQLite only accepts OFFSET after a LIMIT clause
func (sqlite) NoLimit() string { return "-1" }

var (
	// Postgres numbers bind parameters ($1, $2, ...)
	Postgres Dialect = postgres{}

	// SQLite uses positional ? parameters
	SQLite Dialect = sqlite{}
)

// ForDriver returns the dialect for a database/sql driver name
func ForDriver(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// QuoteIdentifier quotes a table or column name
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// Qualify renders alias.column with the column quoted
func Qualify(alias, column string) string {
	return alias + "." + pq.QuoteIdentifier(column)
}

// QuoteLiteral quotes a metamodel constant such as a discriminator value
func QuoteLiteral(value string) string {
	return pq.QuoteLiteral(value)
}
