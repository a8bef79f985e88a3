package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/path"
)

func newResolveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <entity> <path>",
		Short: "Resolve a dotted attribute path one segment at a time",
		Example: `  criteria resolve LineItem order.customer.contact.email
  criteria resolve Address street.name   # fails: street is a basic attribute`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			entity, err := s.entity(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := ui.NewTable(out, s.noColor, "DEPTH", "PATH", "KIND", "BOUND TYPE", "TERMINAL")

			node := path.NewRoot(entity)
			table.AddRow("0", node.String(), "root", entity.Name(), "no")

			resolver := path.NewResolver(s.model)
			for _, segment := range strings.Split(args[1], ".") {
				child, err := resolver.Resolve(node, segment)
				if err != nil {
					table.Render()
					reportPathError(cmd, s, err)
					return err
				}
				node = child

				bound := "-"
				if node.BoundType() != nil {
					bound = node.BoundType().Name()
				}
				terminal := "no"
				if node.IsTerminal() {
					terminal = "yes"
				}
				table.AddRow(strconv.Itoa(node.Depth()), node.String(), node.Attribute().Kind.String(), bound, terminal)
			}

			table.Render()
			return nil
		},
	}
}

// reportPathError prints a resolution failure with suggestions for misspelt attributes
func reportPathError(cmd *cobra.Command, s *session, err error) {
	var unknown *path.UnknownAttributeError
	if errors.As(err, &unknown) {
		names := make([]string, 0, len(unknown.OnType.Attributes()))
		for name := range unknown.OnType.Attributes() {
			names = append(names, name)
		}
		ui.UnknownAttribute(err, unknown.OnType.Name(), unknown.Name, sortedCopy(names), s.noColor).
			Write(cmd.ErrOrStderr())
		return
	}

	var illegal *path.IllegalDereferenceError
	if errors.As(err, &illegal) {
		ui.IllegalDereference(err, s.noColor).Write(cmd.ErrOrStderr())
		return
	}

	ui.Message{Problem: err.Error(), NoColor: s.noColor}.Write(cmd.ErrOrStderr())
}
