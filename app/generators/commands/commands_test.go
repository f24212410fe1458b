package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrazmi/crudsmith/app/generators/scriptgen"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/sdk/version"
)

const carSQL = `
CREATE TABLE Car (
    CarID INTEGER PRIMARY KEY,
    Make VARCHAR(50) NOT NULL,
    Price DECIMAL(10, 2),
    Active BOOLEAN
);
`

func init() {
	color.NoColor = true
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSchema(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateCommand(t *testing.T) {
	schemaFile := writeSchema(t, "car.sql", carSQL)
	outDir := t.TempDir()

	out, err := execute(t, "generate", schemaFile, "-o", outDir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, scriptgen.FileName))
	assert.Contains(t, out, "GENERATED")
	assert.Contains(t, out, "POST   /Car/ -> createCar")
	assert.Contains(t, out, "501 DELETE /Car/{CarID} -> deleteCar")
}

func TestGenerateStdout(t *testing.T) {
	schemaFile := writeSchema(t, "car.sql", carSQL)
	outDir := t.TempDir()

	out, err := execute(t, "generate", schemaFile, "-o", outDir, "--stdout", "--delete", "soft", "--soft-delete-column", "Active")
	require.NoError(t, err)

	assert.Contains(t, out, "package main")
	assert.Contains(t, out, `"UPDATE Car SET Active = ? WHERE CarID = ?"`)
	assert.NoFileExists(t, filepath.Join(outDir, scriptgen.FileName))

	usage := GenerateCmd().Flags().Lookup("soft-delete-column").Usage
	assert.Contains(t, usage, "false for a bool active flag")
	assert.Contains(t, usage, "Reads still list soft deleted rows")
}

func TestGenerateFlagsOverrideEnv(t *testing.T) {
	schemaFile := writeSchema(t, "car.sql", carSQL)
	t.Setenv("GENERATOR_DIALECT", "postgres")
	t.Setenv("GENERATOR_DB_NAME", "dealers")

	out, err := execute(t, "generate", schemaFile, "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, `_ "github.com/jackc/pgx/v5/stdlib"`)
	assert.Contains(t, out, "/dealers?sslmode=disable")

	out, err = execute(t, "generate", schemaFile, "--stdout", "-d", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, `"modernc.org/sqlite"`)
	assert.Contains(t, out, `"dealers.db"`)
}

func TestGenerateErrors(t *testing.T) {
	_, err := execute(t, "generate")
	assert.ErrorContains(t, err, "schema file or --from-db is required")

	_, err = execute(t, "generate", "models.toml", "--dry-run")
	assert.Error(t, err)

	schemaFile := writeSchema(t, "car.sql", carSQL)
	_, err = execute(t, "generate", schemaFile, "--from-db", "shop")
	assert.ErrorContains(t, err, "not both")

	_, err = execute(t, "generate", schemaFile, "--dry-run", "--delete", "soft")
	assert.ErrorContains(t, err, "soft delete column")
}

// seedSQLite points CRUDSMITH_DB_* at a fresh sqlite directory holding a
// shop database with the car table.
func seedSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CRUDSMITH_DB_DIALECT", "sqlite")
	t.Setenv("CRUDSMITH_DB_SQLITE_DIR", dir)

	ctx := context.Background()
	admin, err := sqldb.NewFromEnv(ctx, sqldb.EnvPrefix)
	require.NoError(t, err)
	defer admin.Close()

	require.NoError(t, admin.CreateDatabase(ctx, "shop"))
	require.NoError(t, admin.ExecScript(ctx, "shop", carSQL))
	return dir
}

func TestGenerateFromDatabase(t *testing.T) {
	dir := seedSQLite(t)

	out, err := execute(t, "generate", "--from-db", "shop", "--stdout")
	require.NoError(t, err)

	assert.Contains(t, out, `"modernc.org/sqlite"`)
	assert.Contains(t, out, filepath.Join(dir, "shop.db"))
	assert.Contains(t, out, `"SELECT Make, Price, Active FROM Car WHERE CarID = ?"`)
}

func TestReflectCommand(t *testing.T) {
	seedSQLite(t)
	outDir := t.TempDir()

	out, err := execute(t, "reflect", "shop", "-o", outDir)
	require.NoError(t, err)

	jsonPath := filepath.Join(outDir, "shop.json")
	sqlPath := filepath.Join(outDir, "shop.sql")
	assert.Contains(t, out, jsonPath)
	assert.Contains(t, out, sqlPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Car"`)

	data, err = os.ReadFile(sqlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE")

	out, err = execute(t, "generate", jsonPath, "--stdout", "-d", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, `"SELECT Make, Price, Active FROM Car WHERE CarID = ?"`)

	out, err = execute(t, "reflect", "shop", "-o", outDir, "--format", "yaml")
	require.NoError(t, err)
	yamlPath := filepath.Join(outDir, "shop.yaml")
	assert.Contains(t, out, yamlPath)

	out, err = execute(t, "generate", yamlPath, "--stdout", "-d", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, `"SELECT Make, Price, Active FROM Car WHERE CarID = ?"`)

	_, err = execute(t, "reflect", "shop", "-o", outDir, "--format", "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "crudsmith-gen "+version.String()+"\n", out)
}

func TestFileWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	w, err := newFileWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, 50*time.Millisecond, func() { calls.Add(1) })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestLogFormat(t *testing.T) {
	assert.Equal(t, "json", logFormat(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "json", logFormat(f))
}
