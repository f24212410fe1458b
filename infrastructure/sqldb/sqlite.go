package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/jrazmi/crudsmith/schema/reflector"
)

// openSQLite has no server to reach; it only makes sure the directory that
// holds the database files exists.
func openSQLite(_ context.Context, o *options) (*sqlAdmin, error) {
	if o.SQLiteDir == "" {
		o.SQLiteDir = "."
	}
	if err := os.MkdirAll(o.SQLiteDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sqlite dir: %w", err)
	}

	return &sqlAdmin{
		opts:   o,
		create: createSQLite,
		store: func(db *sql.DB, name string) reflector.Store {
			return reflector.NewSQLiteStore(db, name)
		},
	}, nil
}

// createSQLite opens the file, which creates it.
func createSQLite(ctx context.Context, a *sqlAdmin, name string) error {
	_, err := a.database(ctx, name)
	return err
}
