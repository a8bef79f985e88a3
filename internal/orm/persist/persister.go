// Package persist writes entity instances into the tables laid out by package ddl.
package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/criteria/internal/orm/ddl"
	"github.com/conduit-lang/criteria/internal/orm/dialect"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

var (
	// ErrNotInstantiable is returned when inserting an abstract or embeddable type
	ErrNotInstantiable = errors.New("type cannot be instantiated")

	// ErrUnknownAttribute is returned when a value names no attribute of the entity
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrUnsupportedValue is returned for values that cannot be written to the entity's row,
	// such as collections
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Option configures a Persister
type Option func(*Persister)

// WithLogger sets the logger for executed statements
func WithLogger(logger *zap.Logger) Option {
	return func(p *Persister) {
		p.logger = logger
	}
}

// Persister inserts instances of a model's entities
type Persister struct {
	db      *sql.DB
	model   *schema.Model
	dialect dialect.Dialect
	logger  *zap.Logger
}

// New creates a persister writing to db
func New(db *sql.DB, model *schema.Model, d dialect.Dialect, opts ...Option) *Persister {
	p := &Persister{
		db:      db,
		model:   model,
		dialect: d,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateTables creates every table of the model
func (p *Persister) CreateTables(ctx context.Context) error {
	statements, err := ddl.Generate(p.model)
	if err != nil {
		return fmt.Errorf("failed to generate DDL: %w", err)
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", dialect.ConvertDBError(err))
		}
	}
	p.logger.Debug("tables created", zap.Int("tables", len(statements)))
	return nil
}

// row is the set of column values destined for one table
type row struct {
	table  string
	values map[string]any
}

// Insert writes one instance of entity in a single transaction and returns its identifier.
//
// Values are keyed by attribute name. Embedded values are nested maps, to-one values are
// the associated entity's identifier. A missing identifier is filled with a new UUID.
func (p *Persister) Insert(ctx context.Context, entity *schema.EntityType, values map[string]any) (any, error) {
	if entity.IsAbstract() || entity.IsEmbeddable() {
		return nil, fmt.Errorf("%w: %s", ErrNotInstantiable, entity)
	}

	rows, id, err := p.rows(entity, values)
	if err != nil {
		return nil, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		query, args := p.insertStatement(r)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to insert %s: %w", entity, dialect.ConvertDBError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.logger.Debug("entity inserted",
		zap.String("entity", entity.Name()),
		zap.Any("id", id),
		zap.Int("rows", len(rows)))
	return id, nil
}

// rows splits values into per-table rows, root table first
func (p *Persister) rows(entity *schema.EntityType, values map[string]any) ([]*row, any, error) {
	levels := []*schema.EntityType{entity}
	if entity.Strategy() == schema.StrategyJoined {
		levels = entity.Lineage()
	}

	byTable := make(map[string]*row, len(levels))
	ordered := make([]*row, 0, len(levels))
	for _, level := range levels {
		r := &row{table: level.Table(), values: make(map[string]any)}
		byTable[level.Table()] = r
		ordered = append(ordered, r)
	}
	tableOf := func(attr *schema.Attribute) *row {
		if r, ok := byTable[attr.Declarer.Table()]; ok {
			return r
		}
		return ordered[0]
	}

	id, hasID := values[idAttribute(entity)]
	if !hasID || id == nil {
		id = uuid.NewString()
	}
	for _, r := range ordered {
		r.values[entity.IDColumn()] = id
	}

	if info, ok := entity.Inheritance().(schema.SingleDiscriminator); ok {
		ordered[0].values[info.Column] = info.Value
	}

	for name, value := range values {
		attr, ok := entity.Attribute(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, entity, name)
		}

		switch attr.Kind {
		case schema.KindBasic:
			if attr.Column == entity.IDColumn() {
				continue
			}
			tableOf(attr).values[attr.Column] = value
		case schema.KindEmbedded:
			if err := flatten(tableOf(attr), attr, "", value); err != nil {
				return nil, nil, err
			}
		case schema.KindToOne:
			tableOf(attr).values[attr.ForeignKey] = value
		default:
			return nil, nil, fmt.Errorf("%w: %s.%s is a %s attribute", ErrUnsupportedValue, entity, name, attr.Kind)
		}
	}

	return ordered, id, nil
}

// flatten writes an embedded value into prefixed columns
func flatten(r *row, attr *schema.Attribute, prefix string, value any) error {
	if value == nil {
		return nil
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: embedded %s expects map[string]any, got %T", ErrUnsupportedValue, attr.Name, value)
	}

	prefix += attr.Column + "_"
	for name, v := range nested {
		sub, ok := attr.Target.Attribute(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, attr.Target, name)
		}
		switch sub.Kind {
		case schema.KindBasic:
			r.values[prefix+sub.Column] = v
		case schema.KindEmbedded:
			if err := flatten(r, sub, prefix, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s.%s", ErrUnsupportedValue, attr.Target, name)
		}
	}
	return nil
}

// idAttribute returns the name of the attribute mapping the id column
func idAttribute(entity *schema.EntityType) string {
	for name, attr := range entity.Attributes() {
		if attr.Kind == schema.KindBasic && attr.Column == entity.IDColumn() {
			return name
		}
	}
	return entity.IDColumn()
}

// insertStatement builds an INSERT with columns in sorted order
func (p *Persister) insertStatement(r *row) (string, []any) {
	columns := make([]string, 0, len(r.values))
	for column := range r.values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = dialect.QuoteIdentifier(column)
		placeholders[i] = p.dialect.Placeholder(i + 1)
		args[i] = r.values[column]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.QuoteIdentifier(r.table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}
