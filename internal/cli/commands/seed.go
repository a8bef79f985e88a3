package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/persist"
)

// seedRecord is one instance in a seed file
type seedRecord struct {
	Entity string         `yaml:"entity"`
	Values map[string]any `yaml:"values"`
}

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Insert the instances listed in a YAML seed file",
		Example: `  # seed.yaml
  # - entity: Thing
  #   values: {name: a}
  # - entity: ThingWithQuantity
  #   values: {name: b, quantity: 5}
  criteria seed seed.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var records []seedRecord
			if err := yaml.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to decode seed file: %w", err)
			}

			// Check every entity before writing anything
			for _, r := range records {
				if _, err := s.entity(cmd, r.Entity); err != nil {
					return err
				}
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
			for i, r := range records {
				if _, err := p.Insert(ctx, s.model.MustEntity(r.Entity), r.Values); err != nil {
					return fmt.Errorf("record %d (%s): %w", i, r.Entity, err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("inserted %d records", len(records)), s.noColor))
			return nil
		},
	}
}
