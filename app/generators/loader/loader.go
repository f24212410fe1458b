// Package loader resolves a schema source into the ordered model definitions
// the generator works from. Sources are declarative model files, SQL DDL and
// live databases.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrazmi/crudsmith/app/generators/jsonschema"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/app/generators/sqlparser"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

// Source is a reference to model definitions.
type Source interface {
	// Load evaluates the source. Model order is declaration order.
	Load(ctx context.Context) ([]schema.Model, error)

	// String names the source in errors and logs.
	String() string
}

// Load evaluates src and wraps any failure as a *schema.LoadError.
func Load(ctx context.Context, src Source) ([]schema.Model, error) {
	if src == nil {
		return nil, schema.NewLoadError("", fmt.Errorf("no schema source"))
	}
	models, err := src.Load(ctx)
	if err != nil {
		return nil, schema.NewLoadError(src.String(), err)
	}
	return models, nil
}

// Extensions lists the file extensions File understands.
var Extensions = []string{".yaml", ".yml", ".json", ".sql"}

type fileSource struct {
	path string
}

// File reads a model file. The extension picks the format: .yaml, .yml and
// .json hold declarative models, .sql holds CREATE TABLE statements. A .json
// file may also be a snapshot written by the reflect command.
func File(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) String() string {
	return s.path
}

func (s fileSource) Load(ctx context.Context) ([]schema.Model, error) {
	ext := strings.ToLower(filepath.Ext(s.path))
	switch ext {
	case ".yaml", ".yml", ".json", ".sql":
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q", ext)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	switch {
	case ext == ".sql":
		return sqlparser.ParseModels(string(data))
	case ext == ".json" && jsonschema.IsSnapshot(data):
		return jsonschema.Models(data)
	}
	return schema.Decode(bytes.NewReader(data))
}

type sqlSource struct {
	text string
}

// SQL parses CREATE TABLE statements from a script. Other statements are
// skipped.
func SQL(text string) Source {
	return sqlSource{text: text}
}

func (s sqlSource) String() string {
	return "sql script"
}

func (s sqlSource) Load(ctx context.Context) ([]schema.Model, error) {
	models, err := sqlparser.ParseModels(s.text)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("script has no CREATE TABLE statement")
	}
	return models, nil
}

// Reflecter reads a live database schema.
type Reflecter interface {
	Reflect(ctx context.Context, schemaName string) (*reflector.ReflectedSchema, error)
}

type databaseSource struct {
	reflecter  Reflecter
	schemaName string
}

// Database reflects the tables of a live database. An empty schema name
// reflects the store's default schema.
func Database(r Reflecter, schemaName string) Source {
	return databaseSource{reflecter: r, schemaName: schemaName}
}

func (s databaseSource) String() string {
	if s.schemaName == "" {
		return "database"
	}
	return "database schema " + s.schemaName
}

func (s databaseSource) Load(ctx context.Context) ([]schema.Model, error) {
	rs, err := s.reflecter.Reflect(ctx, s.schemaName)
	if err != nil {
		return nil, err
	}
	return rs.Models(), nil
}

type modelsSource []schema.Model

// Models wraps definitions that are already in memory.
func Models(models ...schema.Model) Source {
	return modelsSource(models)
}

func (s modelsSource) String() string {
	return "models"
}

func (s modelsSource) Load(ctx context.Context) ([]schema.Model, error) {
	return []schema.Model(s), nil
}
