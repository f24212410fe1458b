package reflector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface for PostgreSQL databases using pgx
type PostgresStore struct {
	pool   *pgxpool.Pool
	dbName string
}

// NewPostgresStore creates a new PostgreSQL store from an existing connection pool
func NewPostgresStore(pool *pgxpool.Pool, dbName string) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		dbName: dbName,
	}
}

// GetDatabaseName implements the Store interface
func (s *PostgresStore) GetDatabaseName() string {
	return s.dbName
}

// GetSourceType implements the Store interface
func (s *PostgresStore) GetSourceType() string {
	return "postgres"
}

// DefaultSchema implements the Store interface
func (s *PostgresStore) DefaultSchema() string {
	return "public"
}

// GetTables implements the Store interface
func (s *PostgresStore) GetTables(ctx context.Context, schemaName string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := s.pool.Query(ctx, query, schemaName)
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
func (s *PostgresStore) GetColumns(ctx context.Context, schemaName, tableName string) ([]ColumnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			pgd.description
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables pst
			ON c.table_schema = pst.schemaname
			AND c.table_name = pst.relname
		LEFT JOIN pg_catalog.pg_description pgd
			ON pgd.objoid = pst.relid
			AND pgd.objsubid = c.ordinal_position
		WHERE c.table_schema = $1
		  AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var dataType, udtName string
		var isNullable string
		var defaultValue *string
		var maxLength *int64
		var precision *int64
		var scale *int64
		var comment *string

		err := rows.Scan(
			&col.Name,
			&dataType,
			&udtName,
			&isNullable,
			&defaultValue,
			&maxLength,
			&precision,
			&scale,
			&comment,
		)
		if err != nil {
			return nil, err
		}

		col.DBType = normalizePostgresType(udtName, maxLength, precision, scale)
		col.FieldType = fieldType(col.DBType)
		col.IsNullable = isNullable == "YES"

		if defaultValue != nil {
			col.HasDefault = true
			col.AutoIncrement = strings.HasPrefix(*defaultValue, "nextval(")
			col.DefaultValue = cleanDefaultValue(*defaultValue)
		}

		if maxLength != nil {
			col.MaxLength = int(*maxLength)
		}

		if comment != nil {
			col.Comment = *comment
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// GetPrimaryKey implements the Store interface
func (s *PostgresStore) GetPrimaryKey(ctx context.Context, schemaName, tableName string) ([]string, error) {
	query := `
		SELECT
			kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, schemaName, tableName)
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
func (s *PostgresStore) GetForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKeyInfo, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_schema AS foreign_table_schema,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, schemaName, tableName)
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

// Helper functions

func normalizePostgresType(udtName string, maxLength, precision, scale *int64) string {
	switch udtName {
	case "varchar":
		if maxLength != nil && *maxLength > 0 {
			return fmt.Sprintf("varchar(%d)", *maxLength)
		}
		return "varchar"
	case "bpchar":
		if maxLength != nil && *maxLength > 0 {
			return fmt.Sprintf("char(%d)", *maxLength)
		}
		return "char"
	case "numeric":
		if precision != nil && scale != nil && *precision > 0 && *scale > 0 {
			return fmt.Sprintf("numeric(%d,%d)", *precision, *scale)
		} else if precision != nil && *precision > 0 {
			return fmt.Sprintf("numeric(%d)", *precision)
		}
		return "numeric"
	}
	// Array types are reported as _elem.
	if strings.HasPrefix(udtName, "_") {
		return strings.TrimPrefix(udtName, "_") + "[]"
	}
	return udtName
}

var castSuffix = regexp.MustCompile(`::[\w\s]+(\[\])?`)

func cleanDefaultValue(defaultVal string) string {
	defaultVal = castSuffix.ReplaceAllString(defaultVal, "")
	defaultVal = strings.TrimSpace(defaultVal)
	defaultVal = strings.Trim(defaultVal, "'")
	return defaultVal
}
