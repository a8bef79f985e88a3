package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/criteria/internal/orm/dialect"
	"github.com/conduit-lang/criteria/internal/orm/path"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Option configures a Criteria
type Option func(*Criteria)

// WithDialect selects the SQL dialect. The default is dialect.Postgres.
func WithDialect(d dialect.Dialect) Option {
	return func(c *Criteria) {
		c.dialect = d
	}
}

// WithLogger sets the logger used for rendered statements
func WithLogger(logger *zap.Logger) Option {
	return func(c *Criteria) {
		c.logger = logger
	}
}

type ordering struct {
	path *path.Node
	desc bool
}

// Criteria is a query over one root entity, restricted by predicates built from its paths.
// A Criteria is not safe for concurrent use.
type Criteria struct {
	id       string
	resolver *path.Resolver
	types    *TypeBuilder
	root     *path.Node
	db       *sql.DB
	dialect  dialect.Dialect
	logger   *zap.Logger

	predicates []Predicate
	orderBy    []ordering
	limit      *int
	offset     *int
	distinct   bool
}

// NewCriteria creates a query rooted at entity. db may be nil when the query is only rendered;
// executing such a criteria returns ErrNoDatabase.
func NewCriteria(model schema.Metamodel, entity *schema.EntityType, db *sql.DB, opts ...Option) *Criteria {
	c := &Criteria{
		id:         uuid.NewString(),
		resolver:   path.NewResolver(model),
		types:      NewTypeBuilder(model),
		root:       path.NewRoot(entity),
		db:         db,
		dialect:    dialect.Postgres,
		logger:     zap.NewNop(),
		predicates: make([]Predicate, 0),
		orderBy:    make([]ordering, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the correlation id attached to the criteria's log entries
func (c *Criteria) ID() string { return c.id }

// Root returns the query root
func (c *Criteria) Root() *path.Node { return c.root }

// Get resolves an attribute of the root
func (c *Criteria) Get(name string) (*path.Node, error) {
	return c.resolver.Resolve(c.root, name)
}

// Path resolves a dotted attribute path from the root
func (c *Criteria) Path(dotted string) (*path.Node, error) {
	return c.resolver.ResolvePath(c.root, dotted)
}

// Where adds restrictions; all of them must hold
func (c *Criteria) Where(preds ...Predicate) *Criteria {
	c.predicates = append(c.predicates, preds...)
	return c
}

// TypeOf builds the type expression of node using the criteria's metamodel
func (c *Criteria) TypeOf(node *path.Node) TypeExpression {
	return c.types.TypeOf(node)
}

// WhereType restricts the root to instances of exactly the given type
func (c *Criteria) WhereType(literal *schema.EntityType) *Criteria {
	return c.Where(TypeEquals(c.TypeOf(c.root), literal))
}

// OrderBy adds an ORDER BY on node. Direction is ASC or DESC; anything else means ASC.
func (c *Criteria) OrderBy(node *path.Node, direction string) *Criteria {
	c.orderBy = append(c.orderBy, ordering{
		path: node,
		desc: strings.EqualFold(direction, "DESC"),
	})
	return c
}

// OrderByAsc adds an ascending ORDER BY clause
func (c *Criteria) OrderByAsc(node *path.Node) *Criteria {
	return c.OrderBy(node, "ASC")
}

// OrderByDesc adds a descending ORDER BY clause
func (c *Criteria) OrderByDesc(node *path.Node) *Criteria {
	return c.OrderBy(node, "DESC")
}

// Limit sets the LIMIT clause
func (c *Criteria) Limit(n int) *Criteria {
	c.limit = &n
	return c
}

// Offset sets the OFFSET clause
func (c *Criteria) Offset(n int) *Criteria {
	c.offset = &n
	return c
}

// Distinct removes duplicate root rows introduced by collection joins
func (c *Criteria) Distinct() *Criteria {
	c.distinct = true
	return c
}

// Clone creates an independent copy sharing the root and database handle
func (c *Criteria) Clone() *Criteria {
	clone := &Criteria{
		id:         uuid.NewString(),
		resolver:   c.resolver,
		types:      c.types,
		root:       c.root,
		db:         c.db,
		dialect:    c.dialect,
		logger:     c.logger,
		predicates: make([]Predicate, len(c.predicates)),
		orderBy:    make([]ordering, len(c.orderBy)),
		distinct:   c.distinct,
	}
	copy(clone.predicates, c.predicates)
	copy(clone.orderBy, c.orderBy)

	if c.limit != nil {
		limit := *c.limit
		clone.limit = &limit
	}
	if c.offset != nil {
		offset := *c.offset
		clone.offset = &offset
	}
	return clone
}

// where renders the WHERE clause body, or "" when unrestricted
func (c *Criteria) where(r *renderer) (string, error) {
	parts := make([]string, 0, len(c.predicates)+1)
	if scope := r.scope(); scope != "" {
		parts = append(parts, scope)
	}
	for _, p := range c.predicates {
		sql, err := r.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}

// ToSQL generates the SELECT statement and its parameter bindings
func (c *Criteria) ToSQL() (string, []any, error) {
	r := newRenderer(c.dialect, c.root)

	columns, err := r.selectList()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build select list: %w", err)
	}

	where, err := c.where(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build condition: %w", err)
	}

	orderBy := make([]string, 0, len(c.orderBy))
	for _, o := range c.orderBy {
		column, _, err := r.column(o.path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to build order by: %w", err)
		}
		if o.desc {
			column += " DESC"
		} else {
			column += " ASC"
		}
		orderBy = append(orderBy, column)
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	if c.distinct {
		sql.WriteString("DISTINCT ")
	}
	sql.WriteString(strings.Join(columns, ", "))
	sql.WriteString(" FROM ")
	sql.WriteString(r.from())

	if where != "" {
		sql.WriteString(" WHERE ")
		sql.WriteString(where)
	}

	if len(orderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(orderBy, ", "))
	}

	if c.limit != nil {
		sql.WriteString(" LIMIT ")
		sql.WriteString(r.bind(*c.limit))
	} else if c.offset != nil && c.dialect.NoLimit() != "" {
		sql.WriteString(" LIMIT ")
		sql.WriteString(c.dialect.NoLimit())
	}

	if c.offset != nil {
		sql.WriteString(" OFFSET ")
		sql.WriteString(r.bind(*c.offset))
	}

	return sql.String(), r.args, nil
}

// CountSQL generates the statement counting matching root rows. Ordering and paging are ignored.
func (c *Criteria) CountSQL() (string, []any, error) {
	r := newRenderer(c.dialect, c.root)

	where, err := c.where(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build condition: %w", err)
	}

	count := "COUNT(*)"
	if c.distinct {
		count = fmt.Sprintf("COUNT(DISTINCT %s)", dialect.Qualify("t0", c.root.BoundType().IDColumn()))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", count, r.from())
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, r.args, nil
}

// All executes the query and returns all matching rows keyed by attribute name
func (c *Criteria) All(ctx context.Context) ([]map[string]any, error) {
	query, args, err := c.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	c.logger.Debug("criteria query",
		zap.String("criteria", c.id),
		zap.String("sql", query),
		zap.Int("args", len(args)))

	if c.db == nil {
		return nil, ErrNoDatabase
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", dialect.ConvertDBError(err))
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}
	return results, nil
}

// First executes the query with LIMIT 1 and returns the row
func (c *Criteria) First(ctx context.Context) (map[string]any, error) {
	results, err := c.Clone().Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	return results[0], nil
}

// Count executes the query and returns the number of matching root rows
func (c *Criteria) Count(ctx context.Context) (int64, error) {
	query, args, err := c.CountSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL: %w", err)
	}
	c.logger.Debug("criteria count",
		zap.String("criteria", c.id),
		zap.String("sql", query),
		zap.Int("args", len(args)))

	if c.db == nil {
		return 0, ErrNoDatabase
	}
	var count int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", dialect.ConvertDBError(err))
	}
	return count, nil
}

// Exists reports whether any row matches
func (c *Criteria) Exists(ctx context.Context) (bool, error) {
	count, err := c.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanRows scans SQL rows into a slice of maps
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
