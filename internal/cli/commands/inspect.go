package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [entity]",
		Short: "Show the mapped entities or one entity's attributes",
		Example: `  # List every entity and the inheritance hierarchies
  criteria inspect

  # Show the attributes and mapping of one entity
  criteria inspect Vehicle`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if len(args) == 0 {
				inspectModel(cmd.OutOrStdout(), s)
				return nil
			}

			entity, err := s.entity(cmd, args[0])
			if err != nil {
				return err
			}
			inspectEntity(cmd.OutOrStdout(), entity, s.noColor)
			return nil
		},
	}
}

func inspectModel(w io.Writer, s *session) {
	ui.Header(w, "Entities", s.noColor)

	table := ui.NewTable(w, s.noColor, "NAME", "TABLE", "INHERITANCE", "EXTENDS", "ATTRIBUTES")
	for _, name := range s.model.Names() {
		e := s.model.MustEntity(name)
		extends := ""
		if super := e.Supertype(); super != nil {
			extends = super.Name()
		}
		table.AddRow(
			e.Name(),
			e.Table(),
			describeInheritance(e),
			extends,
			strconv.Itoa(len(e.Attributes())),
		)
	}
	table.Render()

	fmt.Fprintln(w)
	fmt.Fprint(w, s.registry.AnalyzeHierarchy().String())
}

func inspectEntity(w io.Writer, e *schema.EntityType, noColor bool) {
	ui.Header(w, e.Name(), noColor)

	kv := ui.NewKeyValueTable(w, noColor)
	if doc := e.Documentation(); doc != "" {
		kv.AddRow("Description", doc)
	}
	if e.IsEmbeddable() {
		kv.AddRow("Kind", "embeddable")
	} else {
		kv.AddRow("Table", e.Table())
		kv.AddRow("ID column", e.IDColumn())
	}
	kv.AddRow("Inheritance", describeInheritance(e))
	if e.Supertype() != nil {
		kv.AddRow("Extends", e.Supertype().Name())
	}
	if subs := e.Subtypes(); len(subs) > 0 {
		names := make([]string, len(subs))
		for i, sub := range subs {
			names[i] = sub.Name()
		}
		kv.AddRow("Subtypes", fmt.Sprint(names))
	}
	if e.IsAbstract() {
		kv.AddRow("Abstract", "yes")
	}
	kv.Render()
	fmt.Fprintln(w)

	names := make([]string, 0, len(e.Attributes()))
	for name := range e.Attributes() {
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.NewTable(w, noColor, "ATTRIBUTE", "KIND", "TYPE", "COLUMN", "DECLARED BY")
	for _, name := range names {
		attr := e.Attributes()[name]
		typ := attr.Type.String()
		column := attr.Column
		if attr.Target != nil {
			typ = attr.Target.Name()
		}
		if attr.Kind.IsAssociation() {
			column = attr.ForeignKey
		}
		table.AddRow(name, attr.Kind.String(), typ, column, attr.Declarer.Name())
	}
	table.Render()
}

func describeInheritance(e *schema.EntityType) string {
	switch info := e.Inheritance().(type) {
	case schema.NoInheritance:
		return "none"
	case schema.SingleDiscriminator:
		return fmt.Sprintf("single_table %s=%s", info.Column, info.Value)
	case schema.JoinedSubclass:
		return fmt.Sprintf("joined %s.%s", info.Table, info.KeyColumn)
	default:
		panic(fmt.Sprintf("unexpected inheritance %T", info))
	}
}
