package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/reflector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carModel = schema.Model{
	Name: "Car",
	Fields: []schema.Field{
		{Name: "CarID", Type: schema.TypeInt, PrimaryKey: true},
		{Name: "VIN", Type: schema.TypeString},
		{Name: "Price", Type: schema.TypeDecimal, Nullable: true},
	},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "models.yaml",
			content: `
models:
  - name: Car
    fields:
      - {name: CarID, type: int, primary_key: true}
      - {name: VIN, type: str}
      - {name: Price, type: decimal, nullable: true}
`,
		},
		{
			name:    "json list",
			file:    "models.json",
			content: `[{"name": "Car", "fields": [{"name": "CarID", "type": "int", "primary_key": true}, {"name": "VIN", "type": "string"}, {"name": "Price", "type": "numeric", "nullable": true}]}]`,
		},
		{
			name: "reflected snapshot",
			file: "shop.json",
			content: `{"version": "1.0", "source": "mysql", "database": "shop", "tables": [{"table_name": "Car",
  "primary_key": {"column": "CarID", "columns": ["CarID"]},
  "columns": [
    {"name": "CarID", "db_type": "int", "field_type": "int", "is_primary_key": true},
    {"name": "VIN", "db_type": "varchar(17)", "field_type": "str"},
    {"name": "Price", "db_type": "decimal(10,2)", "field_type": "decimal", "is_nullable": true}
  ]}]}`,
		},
		{
			name: "sql",
			file: "schema.sql",
			content: `
CREATE TABLE Car (
    CarID INT AUTO_INCREMENT PRIMARY KEY,
    VIN VARCHAR(17) NOT NULL,
    Price DECIMAL(10, 2)
);`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models, err := Load(context.Background(), File(writeFile(t, tt.file, tt.content)))
			require.NoError(t, err)
			if diff := cmp.Diff([]schema.Model{carModel}, models); diff != "" {
				t.Errorf("models mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileErrors(t *testing.T) {
	_, err := Load(context.Background(), File(filepath.Join(t.TempDir(), "missing.yaml")))
	require.ErrorIs(t, err, schema.ErrLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var le *schema.LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Source, "missing.yaml")

	_, err = Load(context.Background(), File(writeFile(t, "models.toml", "")))
	assert.ErrorIs(t, err, schema.ErrLoad)

	_, err = Load(context.Background(), File(writeFile(t, "broken.yaml", "models: [")))
	assert.ErrorIs(t, err, schema.ErrLoad)
}

func TestSQL(t *testing.T) {
	models, err := Load(context.Background(), SQL("CREATE DATABASE x; CREATE TABLE t (id INT PRIMARY KEY, name TEXT);"))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "t", models[0].Name)

	_, err = Load(context.Background(), SQL("INSERT INTO t VALUES (1);"))
	assert.ErrorIs(t, err, schema.ErrLoad)

	_, err = Load(context.Background(), SQL("CREATE TABLE t (id INT PRIMARY KEY"))
	assert.ErrorIs(t, err, schema.ErrLoad)
}

type fakeReflecter struct {
	rs  *reflector.ReflectedSchema
	err error
}

func (f fakeReflecter) Reflect(ctx context.Context, schemaName string) (*reflector.ReflectedSchema, error) {
	return f.rs, f.err
}

func TestDatabase(t *testing.T) {
	rs := &reflector.ReflectedSchema{Tables: []*reflector.TableInfo{{
		TableName:  "Car",
		PrimaryKey: &reflector.PrimaryKeyInfo{Column: "CarID", Columns: []string{"CarID"}},
		Columns: []reflector.ColumnInfo{
			{Name: "CarID", FieldType: schema.TypeInt},
			{Name: "VIN", FieldType: schema.TypeString},
			{Name: "Price", FieldType: schema.TypeDecimal, IsNullable: true},
		},
	}}}

	models, err := Load(context.Background(), Database(fakeReflecter{rs: rs}, ""))
	require.NoError(t, err)
	if diff := cmp.Diff([]schema.Model{carModel}, models); diff != "" {
		t.Errorf("models mismatch (-want +got):\n%s", diff)
	}

	boom := errors.New("connection refused")
	_, err = Load(context.Background(), Database(fakeReflecter{err: boom}, "public"))
	assert.ErrorIs(t, err, schema.ErrLoad)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "database schema public")
}

func TestModels(t *testing.T) {
	models, err := Load(context.Background(), Models(carModel))
	require.NoError(t, err)
	assert.Equal(t, []schema.Model{carModel}, models)

	_, err = Load(context.Background(), nil)
	assert.ErrorIs(t, err, schema.ErrLoad)
}
