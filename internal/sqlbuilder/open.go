package sqlbuilder

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Open validates cfg, opens the database handle and returns it with the
// matching dialect. The caller owns the handle and must close it.
func Open(cfg types.Config) (*sql.DB, Dialect, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Dialect{}, err
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	db, err := sql.Open(dialect.SQLDriver, cfg.DSN)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("connecting to %s database: %w", cfg.Driver, err)
	}
	if dialect.Name == types.DriverSQLite {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}
	return db, dialect, nil
}
