package orchestrator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/jrazmi/crudsmith/app/generators/loader"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/app/generators/scriptgen"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealershipSQL = `
CREATE DATABASE IF NOT EXISTS dealers;
USE dealers;

CREATE TABLE Dealership (
    DealershipID INT AUTO_INCREMENT PRIMARY KEY,
    Name VARCHAR(100) NOT NULL,
    City VARCHAR(50)
);

CREATE TABLE Car (
    CarID INT AUTO_INCREMENT PRIMARY KEY,
    ModelID INT NOT NULL,
    DealershipID INT,
    VIN VARCHAR(17) UNIQUE NOT NULL,
    Price DECIMAL(10, 2),
    Status VARCHAR(20) DEFAULT 'available',
    FOREIGN KEY (DealershipID) REFERENCES Dealership(DealershipID)
);
`

func newGenerator(t *testing.T, mutate func(*Config)) (*Generator, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := New(cfg)
	require.NoError(t, err)
	return g, cfg.OutputDir
}

func TestGenerateCar(t *testing.T) {
	g, dir := newGenerator(t, nil)

	result, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, scriptgen.FileName), result.Path)
	assert.True(t, result.Written)
	require.Len(t, result.Models, 2)
	assert.Equal(t, "Dealership", result.Models[0].Name)
	assert.Len(t, result.Routes, 8)
	assert.Empty(t, result.Warnings)

	written, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, result.Source, written)

	src := string(written)
	assert.Contains(t, src, `"INSERT INTO Car (ModelID, DealershipID, VIN, Price, Status) VALUES (?, ?, ?, ?, ?)"`)
	assert.Contains(t, src, `"UPDATE Car SET ModelID = ?, DealershipID = ?, VIN = ?, Price = ?, Status = ? WHERE CarID = ?"`)
	assert.Contains(t, src, `mux.HandleFunc("GET /Dealership/{DealershipID}", readDealership)`)
}

func TestGenerateIsDeterministic(t *testing.T) {
	g, _ := newGenerator(t, nil)

	first, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.Source, second.Source)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestGenerateLoadErrorWritesNothing(t *testing.T) {
	g, dir := newGenerator(t, nil)

	_, err := g.Generate(context.Background(), loader.File(filepath.Join(dir, "missing.yaml")))
	require.ErrorIs(t, err, schema.ErrLoad)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateOverwrites(t *testing.T) {
	g, dir := newGenerator(t, nil)
	path := filepath.Join(dir, scriptgen.FileName)
	require.NoError(t, os.WriteFile(path, []byte("package stale\n"), 0o644))

	result, err := g.GenerateModels(context.Background(), []schema.Model{{
		Name:   "Tag",
		Fields: []schema.Field{{Name: "TagID", Type: schema.TypeInt, PrimaryKey: true}},
	}})
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Source, written)
	assert.NotContains(t, string(written), "stale")
}

func TestGenerateIdentifierModes(t *testing.T) {
	models := []schema.Model{
		{Name: "Log", Fields: []schema.Field{{Name: "line", Type: schema.TypeString}}},
		{Name: "Pair", Fields: []schema.Field{
			{Name: "A", Type: schema.TypeInt, PrimaryKey: true},
			{Name: "B", Type: schema.TypeInt, PrimaryKey: true},
		}},
	}

	tolerant, _ := newGenerator(t, nil)
	result, err := tolerant.GenerateModels(context.Background(), models)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "Log declares no identifier")
	assert.Contains(t, result.Warnings[1], "Pair flags 2 identifier fields, A is used")

	strict, dir := newGenerator(t, func(c *Config) { c.Strict = true })
	_, err = strict.GenerateModels(context.Background(), models)
	require.ErrorIs(t, err, schema.ErrIdentifier)
	_, statErr := os.Stat(filepath.Join(dir, scriptgen.FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateDryRun(t *testing.T) {
	g, dir := newGenerator(t, func(c *Config) {
		c.DryRun = true
		c.Dialect = "postgres"
		c.DeleteMode = "hard"
	})

	result, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Empty(t, result.Path)
	assert.Equal(t, dialect.Postgres, result.Dialect)
	assert.Contains(t, string(result.Source), `"DELETE FROM Car WHERE CarID = $1"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateEmitError(t *testing.T) {
	g, _ := newGenerator(t, func(c *Config) {
		c.DeleteMode = "soft"
		c.SoftDeleteColumn = "active"
	})

	_, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	assert.ErrorIs(t, err, routegen.ErrInvalidModel)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"dialect", func(c *Config) { c.Dialect = "oracle" }},
		{"delete mode", func(c *Config) { c.DeleteMode = "purge" }},
		{"soft without column", func(c *Config) { c.DeleteMode = "soft" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GENERATOR_DIALECT", "sqlite")
	t.Setenv("GENERATOR_DB_NAME", "shop")
	t.Setenv("GENERATOR_STRICT", "true")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.True(t, cfg.Strict)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, dialect.Connection{Host: "localhost", User: "root", Database: "shop"}, cfg.Connection())

	conn := dialect.Connection{Host: "db", Port: "5432", User: "app", Password: "pw", Database: "dealers"}
	cfg.UseConnection(conn)
	assert.Equal(t, conn, cfg.Connection())
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	g, _ := newGenerator(t, nil)
	result, err := g.Generate(context.Background(), loader.SQL(dealershipSQL))
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, result)

	out := buf.String()
	assert.Contains(t, out, "GENERATED "+result.Path)
	assert.Contains(t, out, "OK  POST   /Car/ -> createCar")
	assert.Contains(t, out, "501 DELETE /Car/{CarID} -> deleteCar")
}
