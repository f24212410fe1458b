package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jrazmi/crudsmith/app/generators/sqlparser"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

// sqlAdmin serves the database/sql dialects. Handles to individual
// databases are opened on first use and kept until Close.
type sqlAdmin struct {
	opts   *options
	server *sql.DB // nil when the dialect has no server connection

	create func(ctx context.Context, a *sqlAdmin, name string) error
	store  func(db *sql.DB, name string) reflector.Store

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func (a *sqlAdmin) Dialect() dialect.Dialect {
	return a.opts.dialect
}

func (a *sqlAdmin) Connection(name string) dialect.Connection {
	return a.opts.connection(name)
}

func (a *sqlAdmin) CreateDatabase(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := a.create(ctx, a, name); err != nil {
		return fmt.Errorf("creating database %s: %w", name, HandleError(err))
	}
	a.opts.logger.InfoContext(ctx, "database ready", "database", name, "dialect", a.opts.dialect.String())
	return nil
}

func (a *sqlAdmin) ExecScript(ctx context.Context, name, script string) error {
	db, err := a.database(ctx, name)
	if err != nil {
		return err
	}

	stmts := sqlparser.Statements(script)
	if len(stmts) == 0 {
		return ErrEmptyScript
	}

	// A single connection keeps session state (USE, SET, PRAGMA) across
	// statements.
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	for i, stmt := range stmts {
		if a.opts.LogQueries {
			a.opts.logger.InfoContext(ctx, "query start", "sql", compactSQL(stmt))
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return &ScriptError{Index: i + 1, Statement: stmt, Err: HandleError(err)}
		}
	}
	return nil
}

func (a *sqlAdmin) Reflect(ctx context.Context, name string) (*reflector.ReflectedSchema, error) {
	db, err := a.database(ctx, name)
	if err != nil {
		return nil, err
	}
	rs, err := a.opts.reflector(a.store(db, name)).Reflect(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("reflecting %s: %w", name, err)
	}
	return rs, nil
}

func (a *sqlAdmin) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for name, db := range a.dbs {
		errs = append(errs, db.Close())
		delete(a.dbs, name)
	}
	if a.server != nil {
		errs = append(errs, a.server.Close())
	}
	return errors.Join(errs...)
}

// database returns the handle for name, opening and pinging it once.
func (a *sqlAdmin) database(ctx context.Context, name string) (*sql.DB, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if db, ok := a.dbs[name]; ok {
		return db, nil
	}

	d := a.opts.dialect
	db, err := a.opts.open(d.Driver().Name, a.opts.connection(name).DSN(d))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	if err := StatusCheck(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", name, HandleError(err))
	}

	if a.dbs == nil {
		a.dbs = make(map[string]*sql.DB)
	}
	a.dbs[name] = db
	return db, nil
}
