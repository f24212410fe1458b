// Package sqldb administers the databases crudsmith generates services for:
// it creates databases, runs user supplied scripts against them and reflects
// their tables back. MySQL and SQLite go through database/sql, Postgres
// through a pgx pool.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/jrazmi/crudsmith/schema/reflector"
	"github.com/jrazmi/crudsmith/sdk/environment"
	"github.com/jrazmi/crudsmith/sdk/logger"
	"github.com/jrazmi/crudsmith/sdk/validation"
)

// EnvPrefix namespaces the admin's environment variables.
const EnvPrefix = "CRUDSMITH_DB"

// Admin manages databases on one server.
type Admin interface {
	// Dialect reports the database the admin talks to.
	Dialect() dialect.Dialect

	// CreateDatabase creates name unless it already exists.
	CreateDatabase(ctx context.Context, name string) error

	// ExecScript runs each statement of script against name, in order.
	ExecScript(ctx context.Context, name, script string) error

	// Reflect reads the tables of name.
	Reflect(ctx context.Context, name string) (*reflector.ReflectedSchema, error)

	// Connection returns the literal configuration a generated service
	// needs to reach name.
	Connection(name string) dialect.Connection

	// Close releases every connection the admin opened.
	Close() error
}

// Options represents the exportable admin configuration.
type Options struct {
	Dialect        string        `env:"DIALECT" default:"mysql"`
	Host           string        `env:"HOST" default:"localhost"`
	Port           string        `env:"PORT"`
	User           string        `env:"USER" default:"root"`
	Password       string        `env:"PASSWORD"`
	SQLiteDir      string        `env:"SQLITE_DIR" default:"."`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" default:"10s"`
	LogQueries     bool          `env:"LOG_QUERIES" default:"false"`
}

// Opener opens a database/sql handle. It matches sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

type options struct {
	Options
	dialect     dialect.Dialect
	logger      *logger.Logger
	open        Opener
	concurrency int
}

// Option is a function that configures the admin.
type Option func(*options)

// WithLogger sets the logger used for query logging and reflection warnings.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithOpener replaces sql.Open for the database/sql dialects.
func WithOpener(open Opener) Option {
	return func(o *options) {
		o.open = open
	}
}

// WithReflectConcurrency bounds how many tables are reflected at once.
func WithReflectConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// OptionsFromEnv reads the admin configuration from prefixed environment
// variables such as CRUDSMITH_DB_DIALECT.
func OptionsFromEnv(prefix string) (Options, error) {
	var cfg Options
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return Options{}, fmt.Errorf("parsing database config: %w", err)
	}
	return cfg, nil
}

// NewFromEnv opens an admin configured from prefixed environment variables.
func NewFromEnv(ctx context.Context, prefix string, opts ...Option) (Admin, error) {
	cfg, err := OptionsFromEnv(prefix)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts...)
}

// Open connects to the server described by cfg and checks it is reachable.
func Open(ctx context.Context, cfg Options, opts ...Option) (Admin, error) {
	d, err := dialect.Parse(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	o := &options{
		Options:     cfg,
		dialect:     d,
		open:        sql.Open,
		concurrency: 4,
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}

	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	var admin Admin
	switch d {
	case dialect.Postgres:
		admin, err = openPostgres(ctx, o)
	case dialect.SQLite:
		admin, err = openSQLite(ctx, o)
	default:
		admin, err = openMySQL(ctx, o)
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// connection returns the server coordinates for database name.
func (o *options) connection(name string) dialect.Connection {
	c := dialect.Connection{
		Host:     o.Host,
		Port:     o.Port,
		User:     o.User,
		Password: o.Password,
		Database: name,
	}
	if o.dialect == dialect.SQLite && name != "" {
		c.Host = ""
		c.Database = filepath.Join(o.SQLiteDir, name)
	}
	return c
}

func (o *options) reflector(store reflector.Store) *reflector.Reflector {
	return reflector.NewReflector(store,
		reflector.WithLogger(o.logger),
		reflector.WithConcurrency(o.concurrency),
	)
}

// checkName rejects anything that is not a plain identifier. Database names
// are spliced into DDL, so callers normalize user input first.
func checkName(name string) error {
	if !validation.IsIdentifier(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// StatusCheck returns nil if it can successfully talk to the database.
func StatusCheck(ctx context.Context, db *sql.DB) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}
	return db.PingContext(ctx)
}
