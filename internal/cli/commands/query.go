package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/criteria/internal/cli/ui"
	"github.com/conduit-lang/criteria/internal/orm/query"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// criteriaFlags are the restriction flags shared by sql, count and find
type criteriaFlags struct {
	types    []string
	notTypes []string
	where    []string
	order    []string
	limit    int
	offset   int
	distinct bool
}

func (f *criteriaFlags) register(cmd *cobra.Command, paging bool) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.types, "type", "t", nil, "Restrict to rows of exactly these types (repeatable)")
	flags.StringSliceVar(&f.notTypes, "not-type", nil, "Exclude rows of exactly these types (repeatable)")
	flags.StringArrayVarP(&f.where, "where", "w", nil, `Restriction "path operator value" (repeatable)`)
	flags.BoolVar(&f.distinct, "distinct", false, "Collapse duplicate root rows produced by collection joins")
	if paging {
		flags.StringArrayVarP(&f.order, "order", "o", nil, "Order by path[:asc|desc] (repeatable)")
		flags.IntVar(&f.limit, "limit", 0, "Maximum rows")
		flags.IntVar(&f.offset, "offset", 0, "Rows to skip")
	}
}

// build applies the flags to c
func (f *criteriaFlags) build(cmd *cobra.Command, s *session, c *query.Criteria) error {
	types := make([]*schema.EntityType, 0, len(f.types))
	for _, name := range f.types {
		t, err := s.entity(cmd, name)
		if err != nil {
			return err
		}
		types = append(types, t)
	}
	switch len(types) {
	case 0:
	case 1:
		c.WhereType(types[0])
	default:
		c.Where(query.TypeIn(c.TypeOf(c.Root()), types...))
	}

	for _, name := range f.notTypes {
		t, err := s.entity(cmd, name)
		if err != nil {
			return err
		}
		c.Where(query.TypeNotEquals(c.TypeOf(c.Root()), t))
	}

	for _, expr := range f.where {
		pred, err := parseRestriction(c, expr)
		if err != nil {
			reportPathError(cmd, s, err)
			return err
		}
		c.Where(pred)
	}

	for _, expr := range f.order {
		if err := parseOrder(c, expr); err != nil {
			reportPathError(cmd, s, err)
			return err
		}
	}
	if f.limit > 0 {
		c.Limit(f.limit)
	}
	if f.offset > 0 {
		c.Offset(f.offset)
	}
	if f.distinct {
		c.Distinct()
	}
	return nil
}

func newSQLCommand(opts *globalOptions) *cobra.Command {
	flags := &criteriaFlags{}
	var count bool

	cmd := &cobra.Command{
		Use:   "sql <entity>",
		Short: "Render the SQL of a criteria query without running it",
		Example: `  # Rows whose concrete type is exactly Thing
  criteria sql Thing --type Thing

  # Cars and sports cars ordered by make
  criteria sql Vehicle --type Car --type SportsCar --order make

  # Customers with a large line item
  criteria sql Customer --where "orders.lineItems.quantity > 2" --distinct --count`,
		Args: cobra.ExactArgs(1),
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

			c := query.NewCriteria(s.model, entity, nil,
				query.WithDialect(s.cfg.Dialect()),
				query.WithLogger(s.logger))
			if err := flags.build(cmd, s, c); err != nil {
				return err
			}

			render := c.ToSQL
			if count {
				render = c.CountSQL
			}
			stmt, binds, err := render()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, stmt)
			writeArgs(out, binds)
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&count, "count", false, "Render the COUNT query instead")
	return cmd
}

func newCountCommand(opts *globalOptions) *cobra.Command {
	flags := &criteriaFlags{}

	cmd := &cobra.Command{
		Use:   "count <entity>",
		Short: "Count the rows matching a criteria query",
		Example: `  criteria count Thing
  criteria count Thing --type ThingWithQuantity`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCriteria(cmd, opts, flags, args[0], func(ctx context.Context, c *query.Criteria) error {
				n, err := c.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	flags.register(cmd, false)
	return cmd
}

func newFindCommand(opts *globalOptions) *cobra.Command {
	flags := &criteriaFlags{}

	cmd := &cobra.Command{
		Use:   "find <entity>",
		Short: "List the rows matching a criteria query",
		Example: `  criteria find Vehicle --type Car --order make --limit 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCriteria(cmd, opts, flags, args[0], func(ctx context.Context, c *query.Criteria) error {
				rows, err := c.All(ctx)
				if err != nil {
					return err
				}
				writeRows(cmd.OutOrStdout(), rows, opts.noColor)
				return nil
			})
		},
	}

	flags.register(cmd, true)
	return cmd
}

// withCriteria opens the session and database, builds the criteria and runs fn
func withCriteria(cmd *cobra.Command, opts *globalOptions, flags *criteriaFlags, name string,
	fn func(context.Context, *query.Criteria) error) error {
	s, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	entity, err := s.entity(cmd, name)
	if err != nil {
		return err
	}

	db, err := s.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c := query.NewCriteria(s.model, entity, db,
		query.WithDialect(s.cfg.Dialect()),
		query.WithLogger(s.logger))
	if err := flags.build(cmd, s, c); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, c)
}

func writeArgs(w io.Writer, args []any) {
	for i, arg := range args {
		fmt.Fprintf(w, "-- $%d = %#v\n", i+1, arg)
	}
}

func writeRows(w io.Writer, rows []map[string]any, noColor bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	table := ui.NewTable(w, noColor, columns...)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, column := range columns {
			if v := row[column]; v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		table.AddRow(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "(%d rows)\n", table.Len())
}
