package record

import (
	"context"

	"github.com/mesh-intelligence/tablekit/internal/sqlbuilder"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Driver is the query builder an engine executes through. Filters and Set
// columns are stateful and consumed by the next executed statement.
type Driver interface {
	Where(c sqlbuilder.Condition)
	OrWhere(c sqlbuilder.Condition)
	FetchOne(ctx context.Context, table string) (types.Row, bool, error)
	FetchMany(ctx context.Context, table string) ([]types.Row, error)
	Insert(ctx context.Context, table, pk string, row types.Row) (any, error)
	Set(row types.Row)
	Update(ctx context.Context, table string) (int64, error)
	Delete(ctx context.Context, table string) (int64, error)
	Reset()
	ListColumns(ctx context.Context, table string) ([]string, error)
	ColumnMetadata(ctx context.Context, table string) ([]types.ColumnInfo, error)
	LastQuery() string
}

// Compile-time interface check: the SQL builder is a Driver.
var _ Driver = (*sqlbuilder.Builder)(nil)
