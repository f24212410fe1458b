package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

func openMySQL(ctx context.Context, o *options) (*sqlAdmin, error) {
	// The server handle has no default database; CREATE DATABASE runs there.
	server, err := o.open(o.dialect.Driver().Name, o.connection("").DSN(dialect.MySQL))
	if err != nil {
		return nil, fmt.Errorf("opening mysql server: %w", err)
	}
	if err := StatusCheck(ctx, server); err != nil {
		server.Close()
		return nil, fmt.Errorf("pinging mysql server: %w", err)
	}

	return &sqlAdmin{
		opts:   o,
		server: server,
		create: createMySQL,
		store: func(db *sql.DB, name string) reflector.Store {
			return reflector.NewMySQLStore(db, name)
		},
	}, nil
}

func createMySQL(ctx context.Context, a *sqlAdmin, name string) error {
	_, err := a.server.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+dialect.MySQL.QuoteIdent(name))
	return err
}
