// Package ddl generates CREATE TABLE statements for a built model. Each hierarchy is laid
// out according to its strategy: a single-table hierarchy shares the root's table and adds a
// discriminator column, a joined hierarchy gives every level its own table keyed by the
// shared identifier.
package ddl

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/dialect"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

type column struct {
	name       string
	sqlType    string
	nullable   bool
	primaryKey bool
	references string
}

type table struct {
	name    string
	columns []*column
	seen    map[string]bool
}

func (t *table) add(c *column) {
	if t.seen[c.name] {
		return
	}
	t.seen[c.name] = true
	t.columns = append(t.columns, c)
}

// Generator collects the tables of a model
type Generator struct {
	model  *schema.Model
	tables []*table
	byName map[string]*table
}

// NewGenerator creates a generator for model
func NewGenerator(model *schema.Model) *Generator {
	return &Generator{
		model:  model,
		byName: make(map[string]*table),
	}
}

// Generate returns one CREATE TABLE statement per mapped table, supertypes first
func Generate(model *schema.Model) ([]string, error) {
	return NewGenerator(model).Generate()
}

// Generate returns one CREATE TABLE statement per mapped table, supertypes first
func (g *Generator) Generate() ([]string, error) {
	g.tables = nil
	g.byName = make(map[string]*table)

	entities := g.model.Entities()
	for _, e := range entities {
		if e.IsEmbeddable() {
			continue
		}
		if err := g.addEntity(e); err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name(), err)
		}
	}

	// Collection foreign keys live on the target table, which may come later in the order
	for _, e := range entities {
		for _, attr := range e.DeclaredAttributes() {
			if attr.Kind != schema.KindToMany {
				continue
			}
			idType, err := MapType(idTypeOf(e))
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name(), err)
			}
			target, ok := g.byName[attr.Target.Table()]
			if !ok {
				return nil, fmt.Errorf("entity %s: attribute %s: no table for %s", e.Name(), attr.Name, attr.Target)
			}
			target.add(&column{name: attr.ForeignKey, sqlType: idType, nullable: true})
		}
	}

	statements := make([]string, 0, len(g.tables))
	for _, t := range g.tables {
		statements = append(statements, t.createStatement())
	}
	return statements, nil
}

// table returns the definition of name, creating it with its key column on first use
func (g *Generator) table(e *schema.EntityType) (*table, error) {
	if t, ok := g.byName[e.Table()]; ok {
		return t, nil
	}

	idType, err := MapType(idTypeOf(e))
	if err != nil {
		return nil, err
	}

	t := &table{name: e.Table(), seen: make(map[string]bool)}
	id := &column{name: e.IDColumn(), sqlType: idType, primaryKey: true}
	if super := e.Supertype(); super != nil && e.Strategy() == schema.StrategyJoined {
		id.references = super.Table()
	}
	t.add(id)

	if info, ok := e.Inheritance().(schema.SingleDiscriminator); ok {
		t.add(&column{name: info.Column, sqlType: "VARCHAR(255)"})
	}

	g.tables = append(g.tables, t)
	g.byName[t.name] = t
	return t, nil
}

func (g *Generator) addEntity(e *schema.EntityType) error {
	t, err := g.table(e)
	if err != nil {
		return err
	}

	// Rows of other types in a shared table leave a subtype's columns empty
	optional := e.Strategy() == schema.StrategySingleTable && e.Supertype() != nil

	for _, attr := range e.DeclaredAttributes() {
		switch attr.Kind {
		case schema.KindBasic:
			if err := addBasic(t, attr, "", optional); err != nil {
				return err
			}
		case schema.KindEmbedded:
			if err := addEmbedded(t, attr, "", optional); err != nil {
				return err
			}
		case schema.KindToOne:
			idType, err := MapType(idTypeOf(attr.Target))
			if err != nil {
				return err
			}
			t.add(&column{name: attr.ForeignKey, sqlType: idType, nullable: true})
		}
	}
	return nil
}

func addBasic(t *table, attr *schema.Attribute, prefix string, optional bool) error {
	sqlType, err := MapType(attr.Type)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", attr.Name, err)
	}
	t.add(&column{
		name:     prefix + attr.Column,
		sqlType:  sqlType,
		nullable: attr.Nullable || optional,
	})
	return nil
}

// addEmbedded flattens an embedded value into prefixed columns of the owner's table
func addEmbedded(t *table, attr *schema.Attribute, prefix string, optional bool) error {
	prefix += attr.Column + "_"
	for _, sub := range attr.Target.DeclaredAttributes() {
		var err error
		switch sub.Kind {
		case schema.KindBasic:
			err = addBasic(t, sub, prefix, optional || attr.Nullable)
		case schema.KindEmbedded:
			err = addEmbedded(t, sub, prefix, optional || attr.Nullable)
		}
		if err != nil {
			return fmt.Errorf("attribute %s: %w", attr.Name, err)
		}
	}
	return nil
}

// idTypeOf returns the type of the basic attribute mapping the hierarchy's id column
func idTypeOf(e *schema.EntityType) schema.PrimitiveType {
	root := e.HierarchyRoot()
	for _, attr := range root.DeclaredAttributes() {
		if attr.Kind == schema.KindBasic && attr.Column == root.IDColumn() {
			return attr.Type
		}
	}
	return schema.TypeString
}

func (t *table) createStatement() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", dialect.QuoteIdentifier(t.name)))

	for i, c := range t.columns {
		b.WriteString("  ")
		b.WriteString(c.definition())
		if i < len(t.columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString(");")
	return b.String()
}

func (c *column) definition() string {
	parts := []string{dialect.QuoteIdentifier(c.name), c.sqlType, MapNullability(c.nullable)}
	if c.primaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.references != "" {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)",
			dialect.QuoteIdentifier(c.references), dialect.QuoteIdentifier(c.name)))
	}
	return strings.Join(parts, " ")
}
