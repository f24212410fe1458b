package reflector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/sdk/logger"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Reflector is the repository layer that orchestrates schema reflection
// It uses a Store (dependency injected) to query the database
type Reflector struct {
	store       Store
	log         *logger.Logger
	concurrency int
}

// Option configures a Reflector.
type Option func(*Reflector)

// WithLogger logs tables whose key cannot be read.
func WithLogger(log *logger.Logger) Option {
	return func(r *Reflector) {
		r.log = log
	}
}

// WithConcurrency bounds how many tables are reflected at once.
func WithConcurrency(n int) Option {
	return func(r *Reflector) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewReflector creates a new Reflector with the given store
func NewReflector(store Store, opts ...Option) *Reflector {
	r := &Reflector{
		store:       store,
		log:         logger.Discard(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reflect queries the database via the store and returns a complete schema
// reflection. Tables are fetched concurrently and returned in store order.
func (r *Reflector) Reflect(ctx context.Context, schemaName string) (*ReflectedSchema, error) {
	if schemaName == "" {
		schemaName = r.store.DefaultSchema()
	}

	rs := &ReflectedSchema{
		Version:     "1.0",
		Source:      r.store.GetSourceType(),
		Database:    r.store.GetDatabaseName(),
		SchemaName:  schemaName,
		ReflectedAt: time.Now().UTC(),
	}

	names, err := r.store.GetTables(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("get tables: %w", err)
	}

	rs.Tables = make([]*TableInfo, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			table, err := r.reflectTable(gctx, schemaName, name)
			if err != nil {
				return err
			}
			rs.Tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rs, nil
}

func (r *Reflector) reflectTable(ctx context.Context, schemaName, tableName string) (*TableInfo, error) {
	table := &TableInfo{
		TableName:   tableName,
		Schema:      schemaName,
		ForeignKeys: []ForeignKeyInfo{},
	}

	columns, err := r.store.GetColumns(ctx, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("get columns for %s: %w", tableName, err)
	}
	table.Columns = columns

	keys, err := r.store.GetPrimaryKey(ctx, schemaName, tableName)
	if err != nil {
		// Primary key is optional, just log and continue
		r.log.WarnContextf(ctx, "could not get primary key for %s.%s: %v", schemaName, tableName, err)
	}
	if len(keys) > 0 {
		table.PrimaryKey = &PrimaryKeyInfo{Column: keys[0], Columns: keys}
		for i := range table.Columns {
			col := &table.Columns[i]
			for _, k := range keys {
				if col.Name == k {
					col.IsPrimaryKey = true
				}
			}
			if col.Name == keys[0] {
				table.PrimaryKey.DBType = col.DBType
				table.PrimaryKey.HasDefault = col.HasDefault || col.AutoIncrement
				table.PrimaryKey.DefaultExpr = col.DefaultValue
			}
		}
	}

	fks, err := r.store.GetForeignKeys(ctx, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys for %s: %w", tableName, err)
	}
	if fks != nil {
		table.ForeignKeys = fks
	}

	// Mark foreign key columns
	for i := range table.Columns {
		for _, fk := range fks {
			if table.Columns[i].Name == fk.ColumnName {
				table.Columns[i].IsForeignKey = true
			}
		}
	}

	return table, nil
}

// Model converts a reflected table into a model definition. The first key
// column is flagged as the identifier.
func (t *TableInfo) Model() schema.Model {
	m := schema.Model{Name: t.TableName, Fields: make([]schema.Field, 0, len(t.Columns))}
	for _, col := range t.Columns {
		m.Fields = append(m.Fields, schema.Field{
			Name:       col.Name,
			Type:       col.FieldType,
			PrimaryKey: t.PrimaryKey != nil && col.Name == t.PrimaryKey.Column,
			Nullable:   col.IsNullable,
		})
	}
	return m
}

// Models converts every reflected table, keeping table order. Postgres
// catalog names are exact: a bare name would fold to lower case.
func (rs *ReflectedSchema) Models() []schema.Model {
	exact := rs.Source == "postgres"
	models := make([]schema.Model, len(rs.Tables))
	for i, t := range rs.Tables {
		models[i] = t.Model()
		if !exact {
			continue
		}
		models[i].Quoted = true
		for j := range models[i].Fields {
			models[i].Fields[j].Quoted = true
		}
	}
	return models
}

// fieldType resolves the semantic type of a reflected column. Types the
// mapper does not know travel as text.
func fieldType(dbType string) schema.Type {
	t, _ := schema.TypeFromSQL(dbType)
	return t
}

// EncodeJSON writes the schema as indented JSON.
func EncodeJSON(w io.Writer, rs *ReflectedSchema) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rs)
}

// WriteJSON writes the schema to a JSON file
func WriteJSON(rs *ReflectedSchema, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return EncodeJSON(file, rs)
}

// WriteSQL writes the schema to an SQL file (documentation format)
func WriteSQL(rs *ReflectedSchema, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return EncodeSQL(file, rs)
}

// EncodeSQL writes the schema as CREATE TABLE statements. The output can be
// fed back to the sql loader.
func EncodeSQL(w io.Writer, rs *ReflectedSchema) error {
	fmt.Fprintf(w, "-- =============================================================================\n")
	fmt.Fprintf(w, "-- Schema Reflection: %s.%s (%s)\n", rs.Database, rs.SchemaName, rs.Source)
	fmt.Fprintf(w, "-- Reflected at: %s\n", rs.ReflectedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "-- Tables: %d\n", len(rs.Tables))
	fmt.Fprintf(w, "-- =============================================================================\n\n")

	for _, table := range rs.Tables {
		if err := writeTableSQL(w, table); err != nil {
			return fmt.Errorf("write table %s: %w", table.TableName, err)
		}
		fmt.Fprintln(w) // Blank line between tables
	}
	return nil
}

// writeTableSQL writes a single table's SQL definition
func writeTableSQL(w io.Writer, table *TableInfo) error {
	fmt.Fprintf(w, "-- -----------------------------------------------------------------------------\n")
	fmt.Fprintf(w, "-- Table: %s\n", table.TableName)
	fmt.Fprintf(w, "-- -----------------------------------------------------------------------------\n")

	fmt.Fprintf(w, "CREATE TABLE %s (\n", table.TableName)

	lines := make([]string, 0, len(table.Columns)+1+len(table.ForeignKeys))
	for _, col := range table.Columns {
		line := fmt.Sprintf("    %s %s", col.Name, col.DBType)

		if !col.IsNullable {
			line += " NOT NULL"
		}

		if col.HasDefault && col.DefaultValue != "" {
			line += fmt.Sprintf(" DEFAULT %s", col.DefaultValue)
		}

		lines = append(lines, line)
	}

	if table.PrimaryKey != nil {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(table.PrimaryKey.Columns, ", ")))
	}

	for _, fk := range table.ForeignKeys {
		line := fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s(%s)", fk.ColumnName, fk.RefTable, fk.RefColumn)

		if fk.OnDelete != "" && fk.OnDelete != "NO_ACTION" {
			line += fmt.Sprintf(" ON DELETE %s", strings.ReplaceAll(fk.OnDelete, "_", " "))
		}

		if fk.OnUpdate != "" && fk.OnUpdate != "NO_ACTION" {
			line += fmt.Sprintf(" ON UPDATE %s", strings.ReplaceAll(fk.OnUpdate, "_", " "))
		}

		lines = append(lines, line)
	}

	if _, err := fmt.Fprintf(w, "%s\n);\n", strings.Join(lines, ",\n")); err != nil {
		return err
	}
	return nil
}

// normalizeRule upper cases a referential action and joins its words.
func normalizeRule(rule string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rule), " ", "_"))
}
