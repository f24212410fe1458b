package reflector

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// MySQLStore implements the Store interface for MySQL through
// information_schema. MySQL has no schemas inside a database, so the schema
// name is the database name.
type MySQLStore struct {
	db     *sql.DB
	dbName string
}

// NewMySQLStore creates a store over an open database handle
func NewMySQLStore(db *sql.DB, dbName string) *MySQLStore {
	return &MySQLStore{db: db, dbName: dbName}
}

// GetDatabaseName implements the Store interface
func (s *MySQLStore) GetDatabaseName() string {
	return s.dbName
}

// GetSourceType implements the Store interface
func (s *MySQLStore) GetSourceType() string {
	return "mysql"
}

// DefaultSchema implements the Store interface
func (s *MySQLStore) DefaultSchema() string {
	return s.dbName
}

// GetTables implements the Store interface
func (s *MySQLStore) GetTables(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := s.db.QueryContext(ctx, query, schemaName)
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

// GetColumns implements the Store interface
func (s *MySQLStore) GetColumns(ctx context.Context, schemaName, tableName string) ([]ColumnInfo, error) {
	query := `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			character_maximum_length,
			extra,
			column_comment
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := s.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			col          ColumnInfo
			isNullable   string
			defaultValue sql.NullString
			maxLength    sql.NullInt64
			extra        string
		)

		err := rows.Scan(
			&col.Name,
			&col.DBType,
			&isNullable,
			&defaultValue,
			&maxLength,
			&extra,
			&col.Comment,
		)
		if err != nil {
			return nil, err
		}

		col.FieldType = mysqlFieldType(col.DBType)
		col.IsNullable = isNullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if defaultValue.Valid {
			col.HasDefault = true
			col.DefaultValue = defaultValue.String
		}
		if maxLength.Valid {
			col.MaxLength = int(maxLength.Int64)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// mysqlFieldType treats tinyint(1), the storage of BOOLEAN, as a bool.
func mysqlFieldType(columnType string) schema.Type {
	if strings.EqualFold(columnType, "tinyint(1)") {
		return schema.TypeBool
	}
	return fieldType(columnType)
}

// GetPrimaryKey implements the Store interface
func (s *MySQLStore) GetPrimaryKey(ctx context.Context, schemaName, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`

	rows, err := s.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var columnName string
		if err := rows.Scan(&columnName); err != nil {
			return nil, err
		}
		keys = append(keys, columnName)
	}

	return keys, rows.Err()
}

// GetForeignKeys implements the Store interface
func (s *MySQLStore) GetForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKeyInfo, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position`

	rows, err := s.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var fk ForeignKeyInfo
		err := rows.Scan(
			&fk.ColumnName,
			&fk.RefSchema,
			&fk.RefTable,
			&fk.RefColumn,
			&fk.OnUpdate,
			&fk.OnDelete,
		)
		if err != nil {
			return nil, err
		}

		fk.OnUpdate = normalizeRule(fk.OnUpdate)
		fk.OnDelete = normalizeRule(fk.OnDelete)

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}
