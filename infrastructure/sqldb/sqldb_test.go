package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrazmi/crudsmith/schema/dialect"
)

const carScript = `
CREATE TABLE Car (
	CarID INTEGER PRIMARY KEY,
	Make VARCHAR(50) NOT NULL,
	Price DECIMAL(10,2)
);
-- seed
INSERT INTO Car (CarID, Make, Price) VALUES (1, 'Saab', 9000.50);
`

func openSQLiteAdmin(t *testing.T) (Admin, string) {
	t.Helper()
	dir := t.TempDir()
	admin, err := Open(context.Background(), Options{Dialect: "sqlite", SQLiteDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })
	return admin, dir
}

func TestSQLiteAdmin(t *testing.T) {
	ctx := context.Background()
	admin, dir := openSQLiteAdmin(t)

	assert.Equal(t, dialect.SQLite, admin.Dialect())
	require.NoError(t, admin.CreateDatabase(ctx, "shop"))
	assert.FileExists(t, filepath.Join(dir, "shop.db"))

	require.NoError(t, admin.ExecScript(ctx, "shop", carScript))

	rs, err := admin.Reflect(ctx, "shop")
	require.NoError(t, err)
	require.Len(t, rs.Tables, 1)

	car := rs.Tables[0]
	assert.Equal(t, "Car", car.TableName)
	require.NotNil(t, car.PrimaryKey)
	assert.Equal(t, "CarID", car.PrimaryKey.Column)
	assert.Len(t, car.Columns, 3)

	assert.Equal(t, filepath.Join(dir, "shop.db"), admin.Connection("shop").DSN(dialect.SQLite))
}

func TestSQLiteAdminScriptErrors(t *testing.T) {
	ctx := context.Background()
	admin, _ := openSQLiteAdmin(t)
	require.NoError(t, admin.CreateDatabase(ctx, "shop"))

	err := admin.ExecScript(ctx, "shop", "CREATE TABLE a (id INTEGER); CREATE TABLE a (id INTEGER);")
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, 2, scriptErr.Index)
	assert.ErrorIs(t, err, ErrDuplicateObject)

	err = admin.ExecScript(ctx, "shop", "CREAT TABLE b (id INTEGER);")
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, 1, scriptErr.Index)
	assert.ErrorIs(t, err, ErrSyntax)

	assert.ErrorIs(t, admin.ExecScript(ctx, "shop", "-- nothing here\n"), ErrEmptyScript)
}

func TestAdminRejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	admin, _ := openSQLiteAdmin(t)

	for _, name := range []string{"", "shop; DROP TABLE x", "../etc", "1shop"} {
		assert.ErrorIs(t, admin.CreateDatabase(ctx, name), ErrInvalidName, name)
		assert.ErrorIs(t, admin.ExecScript(ctx, name, "SELECT 1"), ErrInvalidName, name)
		_, err := admin.Reflect(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

// mockOpener hands out the given handles in order.
func mockOpener(t *testing.T, dbs ...*sql.DB) Opener {
	t.Helper()
	return func(driverName, dsn string) (*sql.DB, error) {
		require.Equal(t, "mysql", driverName)
		require.NotEmpty(t, dbs, "unexpected open of %s", dsn)
		db := dbs[0]
		dbs = dbs[1:]
		return db, nil
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return db, mock
}

func TestMySQLAdmin(t *testing.T) {
	ctx := context.Background()
	serverDB, server := newMock(t)
	shopDB, shop := newMock(t)

	server.ExpectExec("CREATE DATABASE IF NOT EXISTS shop").WillReturnResult(sqlmock.NewResult(0, 1))
	shop.ExpectExec("CREATE TABLE t (id INT PRIMARY KEY)").WillReturnResult(sqlmock.NewResult(0, 0))
	shop.ExpectExec("CREATE TABLE t (id INT PRIMARY KEY)").
		WillReturnError(&mysql.MySQLError{Number: 1050, Message: "Table 't' already exists"})
	shop.ExpectClose()
	server.ExpectClose()

	admin, err := Open(ctx, Options{Dialect: "mysql", Host: "db", User: "root"},
		WithOpener(mockOpener(t, serverDB, shopDB)))
	require.NoError(t, err)

	require.NoError(t, admin.CreateDatabase(ctx, "shop"))
	require.NoError(t, admin.ExecScript(ctx, "shop", "CREATE TABLE t (id INT PRIMARY KEY);"))

	err = admin.ExecScript(ctx, "shop", "CREATE TABLE t (id INT PRIMARY KEY)")
	assert.ErrorIs(t, err, ErrDuplicateObject)
	var myErr *mysql.MySQLError
	assert.ErrorAs(t, err, &myErr)

	require.NoError(t, admin.Close())
	assert.NoError(t, server.ExpectationsWereMet())
	assert.NoError(t, shop.ExpectationsWereMet())

	conn := admin.Connection("shop")
	assert.Equal(t, "root@tcp(db:3306)/shop?parseTime=true", conn.DSN(dialect.MySQL))
}

func TestHandleError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", plain, plain},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, ErrDBDuplicatedEntry},
		{"mysql db exists", &mysql.MySQLError{Number: 1007}, ErrDuplicateObject},
		{"mysql missing table", &mysql.MySQLError{Number: 1146}, ErrUndefinedTable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, ErrDBDuplicatedEntry},
		{"pg duplicate database", &pgconn.PgError{Code: "42P04"}, ErrDuplicateObject},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, ErrSyntax},
		{"no rows", sql.ErrNoRows, ErrDBNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			if tt.err != nil {
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CRUDSMITH_DB_DIALECT", "sqlite")
	t.Setenv("CRUDSMITH_DB_SQLITE_DIR", dir)

	admin, err := NewFromEnv(context.Background(), EnvPrefix)
	require.NoError(t, err)
	defer admin.Close()

	assert.Equal(t, dialect.SQLite, admin.Dialect())
	assert.Equal(t, filepath.Join(dir, "shop"), admin.Connection("shop").Database)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Options{Dialect: "oracle"})
	assert.Error(t, err)
}

func TestCompactSQL(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE (x = 1)", compactSQL("SELECT a\n\tFROM t\n  WHERE ( x = 1 )"))
}
