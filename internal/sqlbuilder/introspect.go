package sqlbuilder

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// sqliteColumns loads column metadata through PRAGMA table_info.
func sqliteColumns(ctx context.Context, db *sql.DB, d Dialect, table string) ([]types.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.Quote(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var (
			cid     int
			col     types.ColumnInfo
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		if dflt.Valid {
			col.Default = &dflt.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

const mysqlColumnsQuery = `SELECT column_name, column_type, is_nullable, column_default, column_key
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`

// mysqlColumns loads column metadata from information_schema.
func mysqlColumns(ctx context.Context, db *sql.DB, _ Dialect, table string) ([]types.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, mysqlColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var (
			col      types.ColumnInfo
			nullable string
			dflt     sql.NullString
			key      sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &dflt, &key); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		col.PrimaryKey = key.String == "PRI"
		if dflt.Valid {
			col.Default = &dflt.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

const postgresColumnsQuery = `SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
	EXISTS (
		SELECT 1 FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = c.table_schema
			AND tc.table_name = c.table_name
			AND k.column_name = c.column_name
	)
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`

// postgresColumns loads column metadata from information_schema.
func postgresColumns(ctx context.Context, db *sql.DB, _ Dialect, table string) ([]types.ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, postgresColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var (
			col      types.ColumnInfo
			nullable string
			dflt     sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &dflt, &col.PrimaryKey); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		if dflt.Valid {
			col.Default = &dflt.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
