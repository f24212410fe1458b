package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL error numbers.
const (
	mysqlDBExists     = 1007
	mysqlTableExists  = 1050
	mysqlDupEntry     = 1062
	mysqlSyntax       = 1064
	mysqlUndefinedTab = 1146
)

// PostgreSQL error codes.
const (
	pgUniqueViolation = "23505"
	pgSyntax          = "42601"
	pgUndefinedTable  = "42P01"
	pgDuplicateDB     = "42P04"
	pgDuplicateTable  = "42P07"
)

// Set of error variables for admin operations.
var (
	ErrDBNotFound        = sql.ErrNoRows
	ErrDBDuplicatedEntry = errors.New("duplicated entry")
	ErrUndefinedTable    = errors.New("undefined table")
	ErrDuplicateObject   = errors.New("object already exists")
	ErrSyntax            = errors.New("syntax error")
	ErrInvalidName       = errors.New("invalid database name")
	ErrEmptyScript       = errors.New("script has no statements")
)

// ScriptError reports the statement of a script that failed.
type ScriptError struct {
	Index     int // 1-based
	Statement string
	Err       error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("statement %d: %v", e.Index, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// HandleError maps driver errors of every supported dialect onto the
// package sentinels. The driver error stays in the chain, so callers can
// still reach the original with errors.As.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error

	var myErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &myErr):
		switch myErr.Number {
		case mysqlDupEntry:
			sentinel = ErrDBDuplicatedEntry
		case mysqlDBExists, mysqlTableExists:
			sentinel = ErrDuplicateObject
		case mysqlUndefinedTab:
			sentinel = ErrUndefinedTable
		case mysqlSyntax:
			sentinel = ErrSyntax
		}

	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case pgUniqueViolation:
			sentinel = ErrDBDuplicatedEntry
		case pgDuplicateDB, pgDuplicateTable:
			sentinel = ErrDuplicateObject
		case pgUndefinedTable:
			sentinel = ErrUndefinedTable
		case pgSyntax:
			sentinel = ErrSyntax
		}

	case errors.As(err, &liteErr):
		msg := liteErr.Error()
		switch {
		case liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			sentinel = ErrDBDuplicatedEntry
		case strings.Contains(msg, "already exists"):
			sentinel = ErrDuplicateObject
		case strings.Contains(msg, "no such table"):
			sentinel = ErrUndefinedTable
		case strings.Contains(msg, "syntax error"):
			sentinel = ErrSyntax
		}

	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return ErrDBNotFound
	}

	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
