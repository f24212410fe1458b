package sqldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/jrazmi/crudsmith/app/generators/sqlparser"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

// maintenanceDB is the database the server pool connects to.
const maintenanceDB = "postgres"

type pgAdmin struct {
	opts   *options
	server *pgxpool.Pool
	tracer pgx.QueryTracer

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

func openPostgres(ctx context.Context, o *options) (*pgAdmin, error) {
	a := &pgAdmin{opts: o}
	if o.LogQueries {
		a.tracer = NewMultiQueryTracer(NewLoggingQueryTracer(o.logger))
	}

	server, err := a.connect(ctx, maintenanceDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres server: %w", err)
	}
	a.server = server
	return a, nil
}

func (a *pgAdmin) Dialect() dialect.Dialect {
	return dialect.Postgres
}

func (a *pgAdmin) Connection(name string) dialect.Connection {
	return a.opts.connection(name)
}

// CreateDatabase checks pg_database first; postgres has no CREATE DATABASE
// IF NOT EXISTS.
func (a *pgAdmin) CreateDatabase(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	var exists bool
	const q = "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)"
	if err := a.server.QueryRow(ctx, q, name).Scan(&exists); err != nil {
		return fmt.Errorf("checking database %s: %w", name, HandleError(err))
	}
	if !exists {
		if _, err := a.server.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
			err = HandleError(err)
			// Lost a race with another creator.
			if !errors.Is(err, ErrDuplicateObject) {
				return fmt.Errorf("creating database %s: %w", name, err)
			}
		}
	}

	a.opts.logger.InfoContext(ctx, "database ready", "database", name, "dialect", dialect.Postgres.String())
	return nil
}

func (a *pgAdmin) ExecScript(ctx context.Context, name, script string) error {
	pool, err := a.pool(ctx, name)
	if err != nil {
		return err
	}

	stmts := sqlparser.Statements(script)
	if len(stmts) == 0 {
		return ErrEmptyScript
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	for i, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return &ScriptError{Index: i + 1, Statement: stmt, Err: HandleError(err)}
		}
	}
	return nil
}

func (a *pgAdmin) Reflect(ctx context.Context, name string) (*reflector.ReflectedSchema, error) {
	pool, err := a.pool(ctx, name)
	if err != nil {
		return nil, err
	}
	rs, err := a.opts.reflector(reflector.NewPostgresStore(pool, name)).Reflect(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("reflecting %s: %w", name, err)
	}
	return rs, nil
}

func (a *pgAdmin) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for name, pool := range a.pools {
		pool.Close()
		delete(a.pools, name)
	}
	a.server.Close()
	return nil
}

func (a *pgAdmin) pool(ctx context.Context, name string) (*pgxpool.Pool, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if pool, ok := a.pools[name]; ok {
		return pool, nil
	}
	pool, err := a.connect(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", name, err)
	}
	if a.pools == nil {
		a.pools = make(map[string]*pgxpool.Pool)
	}
	a.pools[name] = pool
	return pool, nil
}

func (a *pgAdmin) connect(ctx context.Context, name string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(a.opts.connection(name).DSN(dialect.Postgres))
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = 4
	if a.tracer != nil {
		poolConfig.ConnConfig.Tracer = a.tracer
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", HandleError(err))
	}
	return pool, nil
}
