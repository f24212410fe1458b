package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jrazmi/crudsmith/app/generators/loader"
	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/sdk/logger"
)

// generateOptions are the flags generate and watch share. Only flags the
// user sets override GENERATOR_* environment values.
type generateOptions struct {
	output     string
	pkg        string
	dialect    string
	deleteMode string
	softColumn string
	strict     bool
	dryRun     bool

	dbHost     string
	dbPort     string
	dbUser     string
	dbPassword string
	dbName     string
}

func (o *generateOptions) bind(cmd *cobra.Command) {
	def := orchestrator.DefaultConfig()
	f := cmd.Flags()

	f.StringVarP(&o.output, "output", "o", def.OutputDir, "directory crud_api.go is written to")
	f.StringVar(&o.pkg, "package", def.Package, "package clause of the generated file")
	f.StringVarP(&o.dialect, "dialect", "d", def.Dialect, "target database: mysql, postgres or sqlite")
	f.StringVar(&o.deleteMode, "delete", def.DeleteMode, "delete routes: unspecified (501), hard or soft")
	f.StringVar(&o.softColumn, "soft-delete-column", "", "column a soft delete sets: now for a date, false for a bool active flag, true for a bool named *deleted*. Reads still list soft deleted rows")
	f.BoolVar(&o.strict, "strict", false, "require exactly one identifier per model")
	f.BoolVar(&o.dryRun, "dry-run", false, "render without writing")

	f.StringVar(&o.dbHost, "db-host", def.DBHost, "database host written into the service")
	f.StringVar(&o.dbPort, "db-port", "", "database port written into the service (dialect default when empty)")
	f.StringVar(&o.dbUser, "db-user", def.DBUser, "database user written into the service")
	f.StringVar(&o.dbPassword, "db-password", "", "database password written into the service")
	f.StringVar(&o.dbName, "db-name", def.DBName, "database name written into the service")
}

// config layers the flags the user set over GENERATOR_* values.
func (o *generateOptions) config(cmd *cobra.Command) (orchestrator.Config, error) {
	cfg, err := orchestrator.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	str("output", &cfg.OutputDir, o.output)
	str("package", &cfg.Package, o.pkg)
	str("dialect", &cfg.Dialect, o.dialect)
	str("delete", &cfg.DeleteMode, o.deleteMode)
	str("soft-delete-column", &cfg.SoftDeleteColumn, o.softColumn)
	str("db-host", &cfg.DBHost, o.dbHost)
	str("db-port", &cfg.DBPort, o.dbPort)
	str("db-user", &cfg.DBUser, o.dbUser)
	str("db-password", &cfg.DBPassword, o.dbPassword)
	str("db-name", &cfg.DBName, o.dbName)

	if f.Changed("strict") {
		cfg.Strict = o.strict
	}
	if f.Changed("dry-run") {
		cfg.DryRun = o.dryRun
	}
	return cfg, nil
}

// GenerateCmd returns the generate command.
func GenerateCmd() *cobra.Command {
	var (
		opts   generateOptions
		fromDB string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "generate [schema-file]",
		Short: "Generate crud_api.go from a model file, SQL script or live database",
		Long: `Generate loads model definitions and writes crud_api.go.

The schema file extension picks the loader: .yaml, .yml and .json hold a
declarative model list, .sql holds CREATE TABLE statements. With --from-db
the models are reflected from a database reached through CRUDSMITH_DB_*.

Examples:
  crudsmith-gen generate dealership.sql
  crudsmith-gen generate models.yaml -d postgres --delete hard
  crudsmith-gen generate --from-db shop --stdout`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger(cmd)

			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			if stdout {
				cfg.DryRun = true
			}

			var src loader.Source
			switch {
			case fromDB != "" && len(args) > 0:
				return errors.New("pass either a schema file or --from-db, not both")

			case fromDB != "":
				admin, err := openAdmin(ctx, log, "")
				if err != nil {
					return err
				}
				defer admin.Close()

				src = loader.Database(admin, fromDB)
				useAdminConnection(cmd, &cfg, admin, fromDB)

			case len(args) == 1:
				src = loader.File(args[0])

			default:
				return errors.New("a schema file or --from-db is required")
			}

			gen, err := orchestrator.New(cfg, orchestrator.WithLogger(log))
			if err != nil {
				return err
			}
			result, err := gen.Generate(ctx, src)
			if err != nil {
				return err
			}

			if stdout {
				_, err := cmd.OutOrStdout().Write(result.Source)
				return err
			}
			orchestrator.PrintSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&fromDB, "from-db", "", "reflect the models from this database")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the generated source instead of writing it")

	return cmd
}

// useAdminConnection points the generated service at the reflected
// database unless the user set the connection flags.
func useAdminConnection(cmd *cobra.Command, cfg *orchestrator.Config, admin sqldb.Admin, name string) {
	f := cmd.Flags()
	conn := admin.Connection(name)

	if !f.Changed("dialect") {
		cfg.Dialect = admin.Dialect().String()
	}
	if !f.Changed("db-host") {
		cfg.DBHost = conn.Host
	}
	if !f.Changed("db-port") {
		cfg.DBPort = conn.Port
	}
	if !f.Changed("db-user") {
		cfg.DBUser = conn.User
	}
	if !f.Changed("db-password") {
		cfg.DBPassword = conn.Password
	}
	if !f.Changed("db-name") {
		cfg.DBName = conn.Database
	}
}

// openAdmin reaches the database server described by CRUDSMITH_DB_*. A non
// empty dialectName overrides CRUDSMITH_DB_DIALECT.
func openAdmin(ctx context.Context, log *logger.Logger, dialectName string) (sqldb.Admin, error) {
	cfg, err := sqldb.OptionsFromEnv(sqldb.EnvPrefix)
	if err != nil {
		return nil, err
	}
	if dialectName != "" {
		cfg.Dialect = dialectName
	}
	return sqldb.Open(ctx, cfg, sqldb.WithLogger(log))
}
