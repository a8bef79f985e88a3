package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/ddl"
	"github.com/conduit-lang/criteria/internal/orm/persist"
)

func newDDLCommand(opts *globalOptions) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print or apply the CREATE TABLE statements of the metamodel",
		Long: `Print the tables the metamodel maps to.

Single-table hierarchies share their root's table and carry a discriminator
column; joined hierarchies get one table per type keyed by the root's id.`,
		Example: `  criteria ddl
  criteria ddl --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			if !apply {
				statements, err := ddl.Generate(s.model)
				if err != nil {
					return err
				}
				for _, stmt := range statements {
					fmt.Fprintln(out, stmt)
					fmt.Fprintln(out)
				}
				return nil
			}

			db, err := s.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			p := persist.New(db, s.model, s.cfg.Dialect(), persist.WithLogger(s.logger))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := p.CreateTables(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success("tables created", s.noColor))
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Execute the statements against the configured database")
	return cmd
}
