// Package dialect describes the SQL databases crudsmith can target: how
// statements bind parameters, which database/sql driver serves them, what
// their persistence error type is and how to reach them.
package dialect

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Dialect names a supported database.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Default is the dialect generated services target unless told otherwise.
const Default = MySQL

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse resolves a dialect name. Empty selects Default.
func Parse(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Default, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", s)
}

func (d Dialect) String() string {
	return string(d)
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Placeholders returns count bind markers numbered from start.
func (d Dialect) Placeholders(start, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = d.Placeholder(start + i)
	}
	return out
}

// QuoteIdent quotes a name for use in generated SQL when it is not a plain
// identifier. Plain names are left bare so the database applies its usual
// case folding.
func (d Dialect) QuoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return pq.QuoteIdentifier(name)
}

// Ident renders a declared name for generated SQL. Exact names were quoted
// where they were declared. Postgres folds bare names to lower case, so an
// exact name with upper case letters is quoted there.
func (d Dialect) Ident(name string, exact bool) string {
	if exact && d == Postgres && name != strings.ToLower(name) {
		return pq.QuoteIdentifier(name)
	}
	return d.QuoteIdent(name)
}

// Driver describes the database/sql driver a generated service imports.
type Driver struct {
	// Name is the name registered with database/sql.
	Name string

	// Import is the driver package path.
	Import string

	// Blank is set when the package is only imported for registration.
	Blank bool

	// ErrorPath and ErrorType locate the driver's persistence error type.
	ErrorPath string
	ErrorType string
}

// Driver returns the database/sql driver for the dialect.
func (d Dialect) Driver() Driver {
	switch d {
	case Postgres:
		return Driver{
			Name:      "pgx",
			Import:    "github.com/jackc/pgx/v5/stdlib",
			Blank:     true,
			ErrorPath: "github.com/jackc/pgx/v5/pgconn",
			ErrorType: "PgError",
		}
	case SQLite:
		return Driver{
			Name:      "sqlite",
			Import:    "modernc.org/sqlite",
			ErrorPath: "modernc.org/sqlite",
			ErrorType: "Error",
		}
	default:
		return Driver{
			Name:      "mysql",
			Import:    "github.com/go-sql-driver/mysql",
			ErrorPath: "github.com/go-sql-driver/mysql",
			ErrorType: "MySQLError",
		}
	}
}

// DefaultPort returns the usual TCP port, "" for file based dialects.
func (d Dialect) DefaultPort() string {
	switch d {
	case MySQL:
		return "3306"
	case Postgres:
		return "5432"
	}
	return ""
}

// Connection is the literal database configuration written into a generated
// service and used by the admin layer.
type Connection struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port,omitempty" yaml:"port,omitempty"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// DefaultConnection is the configuration generated services start with.
func DefaultConnection() Connection {
	return Connection{
		Host:     "localhost",
		User:     "root",
		Password: "",
		Database: "newdb",
	}
}

// Addr returns host:port, filling the dialect default port.
func (c Connection) Addr(d Dialect) string {
	port := c.Port
	if port == "" {
		port = d.DefaultPort()
	}
	if port == "" {
		return c.Host
	}
	return net.JoinHostPort(c.Host, port)
}

// DSN renders the driver data source name for the dialect. For sqlite the
// database name is a file; ".db" is appended when it has no extension.
func (c Connection) DSN(d Dialect) string {
	switch d {
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Addr(d),
			Path:     "/" + c.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String()

	case SQLite:
		return SQLiteFile(c.Database)

	default:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = c.Addr(d)
		cfg.DBName = c.Database
		cfg.ParseTime = true
		return cfg.FormatDSN()
	}
}

// SQLiteFile maps a database name to its file name.
func SQLiteFile(name string) string {
	if name == ":memory:" || strings.HasPrefix(name, "file:") || filepath.Ext(name) != "" {
		return name
	}
	return name + ".db"
}
