package sqlbuilder

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Dialect captures the SQL differences between the supported databases:
// placeholder syntax, identifier quoting, insert id retrieval and column
// introspection.
type Dialect struct {
	Name string
	// SQLDriver is the database/sql driver name registered for the dialect.
	SQLDriver string

	numbered  bool // $1, $2 placeholders instead of ?
	quoteChar byte
	returning bool // insert id comes from RETURNING instead of LastInsertId
	columns   func(ctx context.Context, db *sql.DB, d Dialect, table string) ([]types.ColumnInfo, error)
}

// Dialects known to the builder, keyed by config driver name.
var (
	SQLite = Dialect{
		Name:      types.DriverSQLite,
		SQLDriver: "sqlite",
		quoteChar: '"',
		columns:   sqliteColumns,
	}
	MySQL = Dialect{
		Name:      types.DriverMySQL,
		SQLDriver: "mysql",
		quoteChar: '`',
		columns:   mysqlColumns,
	}
	Postgres = Dialect{
		Name:      types.DriverPostgres,
		SQLDriver: "postgres",
		numbered:  true,
		quoteChar: '"',
		returning: true,
		columns:   postgresColumns,
	}
)

// DialectFor returns the dialect for a config driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case types.DriverSQLite:
		return SQLite, nil
	case types.DriverMySQL:
		return MySQL, nil
	case types.DriverPostgres:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("dialect %q: %w", driver, types.ErrDriverUnknown)
	}
}

// Placeholder returns the bind marker for the n-th argument (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote returns ident quoted for the dialect, leaving plain lowercase
// identifiers unquoted.
func (d Dialect) Quote(ident string) string {
	if isSafeUnquotedIdent(ident) {
		return ident
	}
	q := string(d.quoteChar)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// isSafeUnquotedIdent returns true for [a-z_][a-z0-9_]* identifiers that
// are not common reserved words.
func isSafeUnquotedIdent(ident string) bool {
	if ident == "" {
		return false
	}
	c0 := ident[0]
	if !((c0 >= 'a' && c0 <= 'z') || c0 == '_') {
		return false
	}
	for i := 1; i < len(ident); i++ {
		c := ident[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	_, reserved := reservedIdents[ident]
	return !reserved
}

var reservedIdents = map[string]struct{}{
	"select": {}, "insert": {}, "update": {}, "delete": {}, "into": {}, "values": {},
	"create": {}, "alter": {}, "drop": {}, "table": {}, "index": {}, "view": {},
	"from": {}, "where": {}, "group": {}, "order": {}, "by": {}, "having": {},
	"limit": {}, "offset": {}, "join": {}, "on": {}, "as": {}, "set": {},
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {}, "like": {}, "null": {},
	"true": {}, "false": {}, "key": {}, "user": {},
}

// render inlines args into query for the audit log. The result is for
// humans only and is never executed.
func (d Dialect) render(query string, args []any) string {
	if d.numbered {
		for i := len(args); i >= 1; i-- {
			query = strings.ReplaceAll(query, "$"+strconv.Itoa(i), literal(args[i-1]))
		}
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' && n < len(args) {
			b.WriteString(literal(args[n]))
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// literal renders one value as a SQL literal.
func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case []byte:
		return "X'" + hex.EncodeToString(t) + "'"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "'" + t.UTC().Format(time.RFC3339) + "'"
	case fmt.Stringer:
		return "'" + strings.ReplaceAll(t.String(), "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}
