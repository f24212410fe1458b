package reflector

import (
	"context"
	"time"

	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// ReflectedSchema is the reflection of one database schema. Tables keep the
// order the store lists them in.
type ReflectedSchema struct {
	Version     string       `json:"version"`      // Schema format version (e.g., "1.0")
	Source      string       `json:"source"`       // Database type (e.g., "mysql")
	Database    string       `json:"database"`     // Database name
	SchemaName  string       `json:"schema_name"`  // Schema name (e.g., "public"), the database for mysql
	ReflectedAt time.Time    `json:"reflected_at"` // Timestamp of reflection
	Tables      []*TableInfo `json:"tables"`
}

// Table looks up a table by name.
func (rs *ReflectedSchema) Table(name string) (*TableInfo, bool) {
	for _, t := range rs.Tables {
		if t.TableName == name {
			return t, true
		}
	}
	return nil, false
}

// TableInfo represents a single table's metadata
type TableInfo struct {
	TableName   string           `json:"table_name"`
	Schema      string           `json:"schema"`
	PrimaryKey  *PrimaryKeyInfo  `json:"primary_key"`
	Columns     []ColumnInfo     `json:"columns"`
	ForeignKeys []ForeignKeyInfo `json:"foreign_keys"`
}

// ColumnInfo represents a single column's metadata
type ColumnInfo struct {
	Name          string      `json:"name"`
	DBType        string      `json:"db_type"`    // Database type (e.g., "varchar(255)")
	FieldType     schema.Type `json:"field_type"` // Semantic type (e.g., "str")
	IsNullable    bool        `json:"is_nullable"`
	IsPrimaryKey  bool        `json:"is_primary_key"`
	IsForeignKey  bool        `json:"is_foreign_key"`
	AutoIncrement bool        `json:"auto_increment,omitempty"`
	DefaultValue  string      `json:"default_value,omitempty"`
	HasDefault    bool        `json:"has_default"`
	MaxLength     int         `json:"max_length,omitempty"` // For varchar(n)
	Comment       string      `json:"comment,omitempty"`
}

// PrimaryKeyInfo represents primary key metadata. Column is the first key
// column, the one a generated service addresses rows by.
type PrimaryKeyInfo struct {
	Column      string   `json:"column"`
	Columns     []string `json:"columns"`
	DBType      string   `json:"db_type"`
	HasDefault  bool     `json:"has_default"`
	DefaultExpr string   `json:"default_expr,omitempty"`
}

// ForeignKeyInfo represents a foreign key relationship
type ForeignKeyInfo struct {
	ColumnName string `json:"column_name"`
	RefTable   string `json:"ref_table"`
	RefSchema  string `json:"ref_schema,omitempty"`
	RefColumn  string `json:"ref_column"`
	OnDelete   string `json:"on_delete"` // CASCADE, SET_NULL, RESTRICT, NO_ACTION
	OnUpdate   string `json:"on_update"` // CASCADE, SET_NULL, RESTRICT, NO_ACTION
}

// Store is the interface that database stores must implement for reflection
// This is the "store" layer - it knows how to query the database
type Store interface {
	// GetTables returns all table names in the schema
	GetTables(ctx context.Context, schemaName string) ([]string, error)

	// GetColumns returns column metadata for a table in ordinal order
	GetColumns(ctx context.Context, schemaName, tableName string) ([]ColumnInfo, error)

	// GetPrimaryKey returns the primary key columns in key order, empty when
	// the table has none
	GetPrimaryKey(ctx context.Context, schemaName, tableName string) ([]string, error)

	// GetForeignKeys returns foreign key relationships
	GetForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKeyInfo, error)

	// GetDatabaseName returns the database name
	GetDatabaseName() string

	// GetSourceType returns the database type (e.g., "postgres", "mysql")
	GetSourceType() string

	// DefaultSchema is reflected when no schema name is given
	DefaultSchema() string
}

// Config holds configuration for schema reflection output
type Config struct {
	SchemaName string `env:"SCHEMA"`              // Schema to reflect (default: the store's)
	OutputDir  string `env:"OUTPUT_DIR" default:"."` // Where to write output files
}
