package sqlbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Builder errors.
var (
	ErrEmptySet       = errors.New("update has no columns to set")
	ErrEmptyInsert    = errors.New("insert has no columns")
	ErrUnscopedDelete = errors.New("delete without a filter is not allowed")
)

// clause is one pending filter and the logic joining it to the previous one.
type clause struct {
	logic string
	cond  Condition
}

// Builder is a stateful query builder over one database handle. Filters
// added with Where/OrWhere and columns added with Set are consumed by the
// next executed statement. A Builder is not safe for concurrent use; give
// every engine its own.
type Builder struct {
	db      *sql.DB
	dialect Dialect
	where   []clause
	set     types.Row
	last    string
}

// New creates a Builder for db speaking the given dialect.
func New(db *sql.DB, dialect Dialect) *Builder {
	return &Builder{db: db, dialect: dialect}
}

// Where adds c to the pending filter, joined with AND.
func (b *Builder) Where(c Condition) {
	b.where = append(b.where, clause{logic: OpAll, cond: c})
}

// OrWhere adds c to the pending filter, joined with OR.
func (b *Builder) OrWhere(c Condition) {
	b.where = append(b.where, clause{logic: OpAny, cond: c})
}

// Set queues columns for the next Update.
func (b *Builder) Set(row types.Row) {
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		b.set.Set(k, v)
	}
}

// Reset drops pending filters and columns.
func (b *Builder) Reset() {
	b.where = nil
	b.set = types.Row{}
}

// LastQuery returns the last executed statement with its arguments inlined.
func (b *Builder) LastQuery() string {
	return b.last
}

// Pending returns the pending filter as a single condition, for logs.
func (b *Builder) Pending() string {
	var parts []string
	for i, c := range b.where {
		if i > 0 {
			parts = append(parts, c.logic)
		}
		parts = append(parts, c.cond.String())
	}
	return strings.Join(parts, " ")
}

// whereSQL compiles the pending filter into a WHERE clause.
func (b *Builder) whereSQL(args *[]any) string {
	if len(b.where) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(" WHERE ")
	for i, c := range b.where {
		if i > 0 {
			sb.WriteString(" " + c.logic + " ")
		}
		sb.WriteString(c.cond.compile(b.dialect, args))
	}
	return sb.String()
}

// FetchOne returns the first row matching the pending filter, or a zero
// row and false when nothing matches.
func (b *Builder) FetchOne(ctx context.Context, table string) (types.Row, bool, error) {
	var args []any
	query := "SELECT * FROM " + b.dialect.Quote(table) + b.whereSQL(&args) + " LIMIT 1"
	result, err := b.query(ctx, query, args)
	if err != nil {
		return types.Row{}, false, fmt.Errorf("fetching from %s: %w", table, err)
	}
	if len(result) == 0 {
		return types.Row{}, false, nil
	}
	return result[0], true, nil
}

// FetchMany returns every row matching the pending filter.
func (b *Builder) FetchMany(ctx context.Context, table string) ([]types.Row, error) {
	var args []any
	query := "SELECT * FROM " + b.dialect.Quote(table) + b.whereSQL(&args)
	result, err := b.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("fetching from %s: %w", table, err)
	}
	return result, nil
}

func (b *Builder) query(ctx context.Context, query string, args []any) ([]types.Row, error) {
	defer b.Reset()
	b.last = b.dialect.render(query, args)

	rs, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	result := []types.Row{}
	for rs.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var row types.Row
		for i, col := range cols {
			if raw, ok := values[i].([]byte); ok {
				row.Set(col, string(raw))
				continue
			}
			row.Set(col, values[i])
		}
		result = append(result, row)
	}
	return result, rs.Err()
}

// Insert writes row into table and returns the new row's id. pk names the
// primary key column, used by dialects that return ids via RETURNING.
func (b *Builder) Insert(ctx context.Context, table, pk string, row types.Row) (any, error) {
	defer b.Reset()
	if row.Len() == 0 {
		return nil, ErrEmptyInsert
	}

	cols := make([]string, 0, row.Len())
	ph := make([]string, 0, row.Len())
	args := make([]any, 0, row.Len())
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		args = append(args, v)
		cols = append(cols, b.dialect.Quote(k))
		ph = append(ph, b.dialect.Placeholder(len(args)))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.dialect.Quote(table), strings.Join(cols, ", "), strings.Join(ph, ", "))

	if b.dialect.returning {
		query += " RETURNING " + b.dialect.Quote(pk)
		b.last = b.dialect.render(query, args)
		var id any
		if err := b.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", table, err)
		}
		return id, nil
	}

	b.last = b.dialect.render(query, args)
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// Update applies the queued Set columns to rows matching the pending
// filter and returns the affected row count.
func (b *Builder) Update(ctx context.Context, table string) (int64, error) {
	defer b.Reset()
	if b.set.Len() == 0 {
		return 0, ErrEmptySet
	}

	var args []any
	assigns := make([]string, 0, b.set.Len())
	for _, k := range b.set.Keys() {
		v, _ := b.set.Get(k)
		args = append(args, v)
		assigns = append(assigns, b.dialect.Quote(k)+" = "+b.dialect.Placeholder(len(args)))
	}
	query := "UPDATE " + b.dialect.Quote(table) + " SET " + strings.Join(assigns, ", ") + b.whereSQL(&args)
	return b.exec(ctx, table, query, args)
}

// Delete removes rows matching the pending filter and returns the
// affected row count. A delete with no filter is refused.
func (b *Builder) Delete(ctx context.Context, table string) (int64, error) {
	defer b.Reset()
	if len(b.where) == 0 {
		return 0, ErrUnscopedDelete
	}
	var args []any
	query := "DELETE FROM " + b.dialect.Quote(table) + b.whereSQL(&args)
	return b.exec(ctx, table, query, args)
}

func (b *Builder) exec(ctx context.Context, table, query string, args []any) (int64, error) {
	b.last = b.dialect.render(query, args)
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// ColumnMetadata returns the column descriptions of table.
func (b *Builder) ColumnMetadata(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	cols, err := b.dialect.columns(ctx, b.db, b.dialect, table)
	if err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("introspecting %s: %w", table, types.ErrTableNotFound)
	}
	return cols, nil
}

// ListColumns returns the column names of table in declaration order.
func (b *Builder) ListColumns(ctx context.Context, table string) ([]string, error) {
	cols, err := b.ColumnMetadata(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}
