package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/reflector"
)

// ReflectCmd returns the reflect command.
func ReflectCmd() *cobra.Command {
	var (
		output      string
		format      string
		dialectName string
	)

	cmd := &cobra.Command{
		Use:   "reflect <database>",
		Short: "Write the tables of a live database as JSON and SQL",
		Long: `Reflect reads the tables, columns, primary keys and foreign keys of a
database reached through CRUDSMITH_DB_* and writes <database>.json and
<database>.sql. With --format yaml it writes <database>.yaml, the declarative
model document. Every output can be fed back to generate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := newLogger(cmd)
			name := args[0]

			var writeJSON, writeSQL, writeYAML bool
			switch format {
			case "json":
				writeJSON = true
			case "sql":
				writeSQL = true
			case "yaml":
				writeYAML = true
			case "both":
				writeJSON, writeSQL = true, true
			default:
				return fmt.Errorf("unknown format %q, want json, sql, yaml or both", format)
			}

			admin, err := openAdmin(ctx, log, dialectName)
			if err != nil {
				return err
			}
			defer admin.Close()

			log.InfoContext(ctx, "reflecting schema", "database", name, "dialect", admin.Dialect().String())
			rs, err := admin.Reflect(ctx, name)
			if err != nil {
				return fmt.Errorf("reflect schema: %w", err)
			}
			log.InfoContext(ctx, "discovered tables", "count", len(rs.Tables))

			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			if writeJSON {
				path := filepath.Join(output, name+".json")
				if err := reflector.WriteJSON(rs, path); err != nil {
					return fmt.Errorf("write JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if writeSQL {
				path := filepath.Join(output, name+".sql")
				if err := reflector.WriteSQL(rs, path); err != nil {
					return fmt.Errorf("write SQL: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if writeYAML {
				path := filepath.Join(output, name+".yaml")
				if err := writeModels(rs, path); err != nil {
					return fmt.Errorf("write YAML: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory for generated files")
	cmd.Flags().StringVar(&format, "format", "both", "json, sql, yaml or both")
	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "", "override CRUDSMITH_DB_DIALECT")

	return cmd
}

func writeModels(rs *reflector.ReflectedSchema, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := schema.Encode(f, rs.Models()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
