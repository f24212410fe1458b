// Package commands holds the crudsmith-gen command tree.
package commands

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jrazmi/crudsmith/sdk/environment"
	"github.com/jrazmi/crudsmith/sdk/logger"
	"github.com/jrazmi/crudsmith/sdk/version"
)

// Root returns the crudsmith-gen root command with every subcommand added.
func Root() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:     "crudsmith-gen",
		Short:   "Generate CRUD HTTP services from data model definitions",
		Version: version.String(),
		Long: `crudsmith-gen turns model definitions into crud_api.go, a single Go file
serving create, read, update and delete routes for every model over
net/http and database/sql.

Models come from a YAML or JSON model file, a SQL script of CREATE TABLE
statements, or a live database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return environment.LoadEnv(envFile)
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading GENERATOR_* and CRUDSMITH_DB_* variables")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(GenerateCmd())
	root.AddCommand(WatchCmd())
	root.AddCommand(ReflectCmd())
	root.AddCommand(VersionCmd())

	return root
}

// newLogger writes logs to the command's stderr: text on a terminal, JSON
// when piped.
func newLogger(cmd *cobra.Command) *logger.Logger {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		level = "info"
	}
	out := cmd.ErrOrStderr()
	return logger.NewDefault(
		logger.WithOutput(out),
		logger.WithFormat(logFormat(out)),
		logger.WithLevel(level),
		logger.WithService("crudsmith-gen"),
	)
}

func logFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "text"
	}
	return "json"
}
