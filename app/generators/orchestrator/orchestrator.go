// Package orchestrator runs a generation: load the models, emit their
// routes, assemble the service and write it to the fixed output file.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrazmi/crudsmith/app/generators/loader"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/app/generators/scriptgen"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/jrazmi/crudsmith/sdk/environment"
	"github.com/jrazmi/crudsmith/sdk/logger"
)

// EnvPrefix namespaces the generator's environment variables.
const EnvPrefix = "GENERATOR"

// Config holds configuration for the orchestrator
type Config struct {
	OutputDir string `env:"OUTPUT_DIR" default:"."`
	Package   string `env:"PACKAGE" default:"main"`
	Dialect   string `env:"DIALECT" default:"mysql"`

	// Strict requires exactly one identifier per model.
	Strict bool `env:"STRICT" default:"false"`

	DeleteMode       string `env:"DELETE_MODE" default:"unspecified"`
	SoftDeleteColumn string `env:"SOFT_DELETE_COLUMN"`

	// DryRun renders without writing.
	DryRun bool `env:"DRY_RUN" default:"false"`

	// Connection literal written into the generated service.
	DBHost     string `env:"DB_HOST" default:"localhost"`
	DBPort     string `env:"DB_PORT"`
	DBUser     string `env:"DB_USER" default:"root"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" default:"newdb"`
}

// DefaultConfig matches the env defaults.
func DefaultConfig() Config {
	conn := dialect.DefaultConnection()
	return Config{
		OutputDir:  ".",
		Package:    "main",
		Dialect:    string(dialect.Default),
		DeleteMode: string(routegen.DeleteUnspecified),
		DBHost:     conn.Host,
		DBUser:     conn.User,
		DBPassword: conn.Password,
		DBName:     conn.Database,
	}
}

// ConfigFromEnv reads GENERATOR_* variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := environment.ParseEnvTags(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing generator config: %w", err)
	}
	return cfg, nil
}

// Connection returns the connection literal.
func (c Config) Connection() dialect.Connection {
	return dialect.Connection{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
	}
}

// UseConnection points the generated service at conn.
func (c *Config) UseConnection(conn dialect.Connection) {
	c.DBHost = conn.Host
	c.DBPort = conn.Port
	c.DBUser = conn.User
	c.DBPassword = conn.Password
	c.DBName = conn.Database
}

// Result holds the complete generation results
type Result struct {
	RunID     uuid.UUID
	Path      string
	Dialect   dialect.Dialect
	Models    []schema.Model
	Routes    []routegen.RouteBlock
	Source    []byte
	Written   bool
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Warnings  []string
}

// Generator runs generations with a fixed configuration.
type Generator struct {
	cfg     Config
	dialect dialect.Dialect
	emitter *routegen.Emitter
	log     *logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards.
func WithLogger(log *logger.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// New validates the configuration and returns a Generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	d, err := dialect.Parse(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	mode, err := routegen.ParseDeleteMode(cfg.DeleteMode)
	if err != nil {
		return nil, err
	}
	if mode == routegen.DeleteSoft && cfg.SoftDeleteColumn == "" {
		return nil, errors.New("soft delete needs a soft delete column")
	}
	if cfg.Package == "" {
		cfg.Package = "main"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	g := &Generator{
		cfg:     cfg,
		dialect: d,
		emitter: routegen.New(
			routegen.WithDialect(d),
			routegen.WithDeleteMode(mode, cfg.SoftDeleteColumn),
		),
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate loads src and generates the service from it. Nothing is written
// when the source cannot be loaded.
func (g *Generator) Generate(ctx context.Context, src loader.Source) (*Result, error) {
	models, err := loader.Load(ctx, src)
	if err != nil {
		g.log.ErrorContextf(ctx, "load %s: %v", src, err)
		return nil, err
	}
	g.log.InfoContext(ctx, "schema loaded", "source", src.String(), "models", len(models))
	return g.GenerateModels(ctx, models)
}

// GenerateModels runs introspection, emission, assembly and the write for
// models already in memory.
func (g *Generator) GenerateModels(ctx context.Context, models []schema.Model) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		Dialect:   g.dialect,
		Models:    models,
		StartTime: time.Now(),
	}

	if g.cfg.Strict {
		if err := schema.Validate(models); err != nil {
			return nil, err
		}
	}
	result.Warnings = warnings(models)
	for _, w := range result.Warnings {
		g.log.WarnContext(ctx, w, "run_id", result.RunID)
	}

	plan, err := g.emitter.Plan(models)
	if err != nil {
		return nil, err
	}

	script := scriptgen.Assemble(plan,
		scriptgen.WithPackage(g.cfg.Package),
		scriptgen.WithDialect(g.dialect),
		scriptgen.WithConnection(g.cfg.Connection()),
	)
	result.Routes = script.Routes()

	result.Source, err = script.Bytes()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !g.cfg.DryRun {
		result.Path, err = scriptgen.WriteBytes(g.cfg.OutputDir, result.Source)
		if err != nil {
			return nil, err
		}
		result.Written = true
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	g.log.InfoContext(ctx, "service generated",
		"run_id", result.RunID,
		"path", result.Path,
		"dialect", g.dialect,
		"models", len(models),
		"routes", len(result.Routes),
		"duration", result.Duration,
	)
	return result, nil
}

// warnings lists what tolerant mode accepts but a reader should know about.
func warnings(models []schema.Model) []string {
	var out []string
	if len(models) == 0 {
		out = append(out, "no models found, the service has no routes")
	}
	for _, m := range models {
		in := schema.Introspect(m)
		switch {
		case in.Flagged == 0:
			out = append(out, fmt.Sprintf("%s declares no identifier: update and delete answer 501", m.Name))
		case in.Flagged > 1:
			out = append(out, fmt.Sprintf("%s flags %d identifier fields, %s is used", m.Name, in.Flagged, in.Identifier.Name))
		}
	}
	return out
}
