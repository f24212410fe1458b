package reflector

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/jrazmi/crudsmith/schema/dialect"
)

// SQLiteStore implements the Store interface for SQLite using sqlite_master
// and the table pragmas. SQLite has a single schema, "main".
type SQLiteStore struct {
	db     *sql.DB
	dbName string
}

// NewSQLiteStore creates a store over an open database handle
func NewSQLiteStore(db *sql.DB, dbName string) *SQLiteStore {
	return &SQLiteStore{db: db, dbName: dbName}
}

// GetDatabaseName implements the Store interface
func (s *SQLiteStore) GetDatabaseName() string {
	return s.dbName
}

// GetSourceType implements the Store interface
func (s *SQLiteStore) GetSourceType() string {
	return "sqlite"
}

// DefaultSchema implements the Store interface
func (s *SQLiteStore) DefaultSchema() string {
	return "main"
}

// GetTables implements the Store interface
func (s *SQLiteStore) GetTables(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

type pragmaColumn struct {
	ColumnInfo
	pk int
}

func (s *SQLiteStore) tableInfo(ctx context.Context, tableName string) ([]pragmaColumn, error) {
	// Pragmas take no bind parameters.
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+dialect.SQLite.QuoteIdent(tableName)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []pragmaColumn
	for rows.Next() {
		var (
			col          pragmaColumn
			cid          int
			notNull      int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.DBType, &notNull, &defaultValue, &col.pk); err != nil {
			return nil, err
		}
		col.FieldType = fieldType(col.DBType)
		col.IsNullable = notNull == 0 && col.pk == 0
		if defaultValue.Valid {
			col.HasDefault = true
			col.DefaultValue = defaultValue.String
		}
		// A single INTEGER PRIMARY KEY is the rowid and assigned on insert.
		col.AutoIncrement = col.pk == 1 && strings.EqualFold(col.DBType, "integer")
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// GetColumns implements the Store interface
func (s *SQLiteStore) GetColumns(ctx context.Context, schemaName, tableName string) ([]ColumnInfo, error) {
	pragma, err := s.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}
	columns := make([]ColumnInfo, len(pragma))
	for i, c := range pragma {
		columns[i] = c.ColumnInfo
	}
	return columns, nil
}

// GetPrimaryKey implements the Store interface
func (s *SQLiteStore) GetPrimaryKey(ctx context.Context, schemaName, tableName string) ([]string, error) {
	pragma, err := s.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var keyed []pragmaColumn
	for _, c := range pragma {
		if c.pk > 0 {
			keyed = append(keyed, c)
		}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].pk < keyed[j].pk })

	keys := make([]string, len(keyed))
	for i, c := range keyed {
		keys[i] = c.Name
	}
	return keys, nil
}

// GetForeignKeys implements the Store interface
func (s *SQLiteStore) GetForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKeyInfo, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_list("+dialect.SQLite.QuoteIdent(tableName)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var (
			fk      ForeignKeyInfo
			id, seq int
			to      sql.NullString
			match   string
		)
		if err := rows.Scan(&id, &seq, &fk.RefTable, &fk.ColumnName, &to, &fk.OnUpdate, &fk.OnDelete, &match); err != nil {
			return nil, err
		}
		// A reference without columns points at the parent's key.
		fk.RefColumn = to.String
		fk.OnUpdate = normalizeRule(fk.OnUpdate)
		fk.OnDelete = normalizeRule(fk.OnDelete)
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}
