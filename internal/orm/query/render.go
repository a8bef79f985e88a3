package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/dialect"
	"github.com/conduit-lang/criteria/internal/orm/path"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// JoinType represents the type of SQL join
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// String returns the string representation of the join type
func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT"
	default:
		return "INNER"
	}
}

// Join represents a SQL join clause
type Join struct {
	Type      JoinType
	Table     string
	Alias     string
	Condition string
}

// renderer turns paths and predicates into SQL for one statement. Every path segment that
// crosses an association or a joined-subclass level gets its own aliased join, shared by all
// uses of the same path.
type renderer struct {
	dialect dialect.Dialect
	root    *path.Node

	joins   []*Join
	aliases map[string]string
	args    []any
}

func newRenderer(d dialect.Dialect, root *path.Node) *renderer {
	return &renderer{
		dialect: d,
		root:    root,
		aliases: map[string]string{root.String(): "t0"},
	}
}

// bind records a value and returns its placeholder
func (r *renderer) bind(value any) string {
	r.args = append(r.args, value)
	return r.dialect.Placeholder(len(r.args))
}

func (r *renderer) nextAlias() string {
	return fmt.Sprintf("t%d", len(r.aliases))
}

func (r *renderer) checkRoot(n *path.Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil path", ErrForeignRoot)
	}
	if !n.Root().Equal(r.root) {
		return fmt.Errorf("%w: %s is not rooted at %s", ErrForeignRoot, n, r.root)
	}
	return nil
}

// from renders the FROM clause and the joins collected so far
func (r *renderer) from() string {
	var b strings.Builder
	b.WriteString(dialect.QuoteIdentifier(r.root.BoundType().Table()))
	b.WriteString(" t0")
	for _, join := range r.joins {
		fmt.Fprintf(&b, " %s JOIN %s %s ON %s",
			join.Type, dialect.QuoteIdentifier(join.Table), join.Alias, join.Condition)
	}
	return b.String()
}

// scope restricts a single-table subtype root to the rows of its subtree
func (r *renderer) scope() string {
	bound := r.root.BoundType()
	return subtreeRestriction(bound, "t0")
}

func subtreeRestriction(t *schema.EntityType, alias string) string {
	info, ok := t.Inheritance().(schema.SingleDiscriminator)
	if !ok || info.Root == t {
		return ""
	}

	descendants := t.Descendants()
	values := make([]string, len(descendants))
	for i, d := range descendants {
		values[i] = dialect.QuoteLiteral(d.DiscriminatorValue())
	}
	return fmt.Sprintf("%s IN (%s)", dialect.Qualify(alias, info.Column), strings.Join(values, ", "))
}

// entityAlias returns the alias of the table holding the entity a node is bound to.
// Association segments are joined on first use.
func (r *renderer) entityAlias(n *path.Node) (string, error) {
	key := n.String()
	if alias, ok := r.aliases[key]; ok {
		return alias, nil
	}

	attr := n.Attribute()
	target := n.BoundType()
	if attr == nil || target == nil || !attr.Kind.IsAssociation() {
		return "", fmt.Errorf("%w: %s is not bound to an entity", ErrNotComparable, n)
	}

	owner, prefix, err := r.columnOwner(n.Parent(), attr)
	if err != nil {
		return "", err
	}

	alias := r.nextAlias()
	join := &Join{Table: target.Table(), Alias: alias}
	switch attr.Kind {
	case schema.KindToOne:
		join.Type = LeftJoin
		join.Condition = fmt.Sprintf("%s = %s",
			dialect.Qualify(alias, target.IDColumn()),
			dialect.Qualify(owner, prefix+attr.ForeignKey))
	case schema.KindToMany:
		join.Type = InnerJoin
		join.Condition = fmt.Sprintf("%s = %s",
			dialect.Qualify(alias, attr.ForeignKey),
			dialect.Qualify(owner, owningEntity(n.Parent()).IDColumn()))
	}
	if restriction := subtreeRestriction(target, alias); restriction != "" {
		join.Condition += " AND " + restriction
	}

	r.aliases[key] = alias
	r.joins = append(r.joins, join)
	return alias, nil
}

// levelAlias returns the alias of the table storing the columns that level declares for the
// entity n is bound to. Joined-subclass ancestors live in their own tables.
func (r *renderer) levelAlias(n *path.Node, level *schema.EntityType) (string, error) {
	base, err := r.entityAlias(n)
	if err != nil {
		return "", err
	}

	bound := n.BoundType()
	if level == nil || level.Table() == bound.Table() {
		return base, nil
	}

	key := n.String() + "#" + level.Name()
	if alias, ok := r.aliases[key]; ok {
		return alias, nil
	}

	alias := r.nextAlias()
	joinType := LeftJoin
	if n.IsRoot() {
		joinType = InnerJoin
	}
	r.aliases[key] = alias
	r.joins = append(r.joins, &Join{
		Type:  joinType,
		Table: level.Table(),
		Alias: alias,
		Condition: fmt.Sprintf("%s = %s",
			dialect.Qualify(alias, level.IDColumn()),
			dialect.Qualify(base, bound.IDColumn())),
	})
	return alias, nil
}

// columnOwner locates the table alias and column prefix for attr resolved against parent.
// Embedded values are stored in their owner's table under a prefix.
func (r *renderer) columnOwner(parent *path.Node, attr *schema.Attribute) (string, string, error) {
	if embedded := parent.Attribute(); embedded != nil && embedded.Kind == schema.KindEmbedded {
		alias, prefix, err := r.columnOwner(parent.Parent(), embedded)
		if err != nil {
			return "", "", err
		}
		return alias, prefix + embedded.Column + "_", nil
	}

	alias, err := r.levelAlias(parent, attr.Declarer)
	if err != nil {
		return "", "", err
	}
	return alias, "", nil
}

// owningEntity skips embedded segments to find the entity whose row stores n's columns
func owningEntity(n *path.Node) *schema.EntityType {
	for n.Attribute() != nil && n.Attribute().Kind == schema.KindEmbedded {
		n = n.Parent()
	}
	return n.BoundType()
}

// column renders the column a comparable node reads: the attribute's column for a basic
// leaf, the identifier for an entity.
func (r *renderer) column(n *path.Node) (string, *schema.Attribute, error) {
	if err := r.checkRoot(n); err != nil {
		return "", nil, err
	}

	if n.IsTerminal() {
		attr := n.Attribute()
		alias, prefix, err := r.columnOwner(n.Parent(), attr)
		if err != nil {
			return "", nil, err
		}
		return dialect.Qualify(alias, prefix+attr.Column), attr, nil
	}

	bound := n.BoundType()
	if bound == nil || bound.IsEmbeddable() {
		return "", nil, fmt.Errorf("%w: %s", ErrNotComparable, n)
	}
	alias, err := r.entityAlias(n)
	if err != nil {
		return "", nil, err
	}
	return dialect.Qualify(alias, bound.IDColumn()), nil, nil
}

// predicate renders one restriction
func (r *renderer) predicate(p Predicate) (string, error) {
	switch pred := p.(type) {
	case Constant:
		if pred.Value {
			return "1 = 1", nil
		}
		return "1 = 0", nil

	case *DiscriminatorEquals:
		if err := r.checkRoot(pred.Path); err != nil {
			return "", err
		}
		alias, err := r.entityAlias(pred.Path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", dialect.Qualify(alias, pred.Column), r.bind(pred.Value)), nil

	case *JoinedTypeEquals:
		if err := r.checkRoot(pred.Path); err != nil {
			return "", err
		}
		return r.joinedType(pred)

	case *Comparison:
		field, attr, err := r.column(pred.Path)
		if err != nil {
			return "", err
		}
		if attr != nil {
			if err := ValidateOperator(pred.Operator, attr.Type); err != nil {
				return "", fmt.Errorf("%s: %w", pred.Path, err)
			}
		}
		return conditionToSQL(&Condition{Field: field, Operator: pred.Operator, Value: pred.Value}, r.bind)

	case *Junction:
		if len(pred.Predicates) == 0 {
			if pred.Or {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		for _, child := range pred.Predicates {
			sql, err := r.predicate(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		connector := " AND "
		if pred.Or {
			connector = " OR "
		}
		return "(" + strings.Join(parts, connector) + ")", nil

	case *Negation:
		sql, err := r.predicate(pred.Predicate)
		if err != nil {
			return "", err
		}
		return "NOT (" + sql + ")", nil

	default:
		panic(fmt.Sprintf("query: unhandled predicate %T", p))
	}
}

// joinedType renders an exact type test for a joined-subclass instance: a row exists in the
// literal's table and in none of its direct subtypes' tables.
func (r *renderer) joinedType(pred *JoinedTypeEquals) (string, error) {
	alias, err := r.entityAlias(pred.Path)
	if err != nil {
		return "", err
	}
	bound := pred.Path.BoundType()
	id := dialect.Qualify(alias, bound.IDColumn())

	var parts []string
	if !pred.Path.IsRoot() {
		parts = append(parts, id+" IS NOT NULL")
	}
	if !bound.IsSubtypeOf(pred.Literal) {
		parts = append(parts, existsRow(pred.Literal, id, false))
	}
	for _, sub := range pred.Literal.Subtypes() {
		parts = append(parts, existsRow(sub, id, true))
	}

	switch len(parts) {
	case 0:
		return "1 = 1", nil
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}
}

func existsRow(t *schema.EntityType, id string, negate bool) string {
	alias := "x_" + schema.ToSnakeCase(t.Name())
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s = %s)",
		dialect.QuoteIdentifier(t.Table()), alias, dialect.Qualify(alias, t.IDColumn()), id)
	if negate {
		return "NOT " + sql
	}
	return sql
}

// selectList renders the root type's basic and embedded attributes, sorted by name, plus the
// discriminator of a single-table hierarchy
func (r *renderer) selectList() ([]string, error) {
	var columns []string
	if err := r.selectAttributes(r.root, "", &columns); err != nil {
		return nil, err
	}

	if info, ok := r.root.BoundType().Inheritance().(schema.SingleDiscriminator); ok {
		columns = append(columns, fmt.Sprintf("%s AS %s",
			dialect.Qualify("t0", info.Column), dialect.QuoteIdentifier(info.Column)))
	}
	return columns, nil
}

func (r *renderer) selectAttributes(n *path.Node, prefix string, columns *[]string) error {
	attrs := n.BoundType().Attributes()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attr := attrs[name]
		switch attr.Kind {
		case schema.KindBasic:
			child, err := n.Get(name)
			if err != nil {
				return err
			}
			column, _, err := r.column(child)
			if err != nil {
				return err
			}
			*columns = append(*columns, fmt.Sprintf("%s AS %s", column, dialect.QuoteIdentifier(prefix+name)))
		case schema.KindEmbedded:
			child, err := n.Get(name)
			if err != nil {
				return err
			}
			if err := r.selectAttributes(child, prefix+name+".", columns); err != nil {
				return err
			}
		}
	}
	return nil
}
