package schema

import (
	"sort"
)

// Metamodel is the read-only view of mapped types that path resolution and type
// predicates consume. Implementations must be safe for concurrent reads.
type Metamodel interface {
	// AttributesOf returns every attribute visible on t, inherited ones included
	AttributesOf(t *EntityType) map[string]*Attribute

	// InheritanceOf reports the discrimination strategy in effect for t
	InheritanceOf(t *EntityType) Inheritance
}

// Inheritance describes how the concrete type of a stored row is determined.
//
// It is a closed set: NoInheritance, SingleDiscriminator and JoinedSubclass are the
// only implementations.
type Inheritance interface {
	Strategy() InheritanceStrategy
	inheritance()
}

// NoInheritance is reported by types that share storage with no other mapped type
type NoInheritance struct{}

// Strategy returns StrategyNone
func (NoInheritance) Strategy() InheritanceStrategy { return StrategyNone }
func (NoInheritance) inheritance()                  {}

// SingleDiscriminator is reported by members of a single-table hierarchy
type SingleDiscriminator struct {
	Root   *EntityType
	Column string
	// Value is the discriminator value of the reporting type
	Value string
}

// Strategy returns StrategySingleTable
func (SingleDiscriminator) Strategy() InheritanceStrategy { return StrategySingleTable }
func (SingleDiscriminator) inheritance()                  {}

// JoinedSubclass is reported by members of a joined-subclass hierarchy
type JoinedSubclass struct {
	Root *EntityType
	// Table holds the rows for the attributes declared by the reporting type
	Table string
	// KeyColumn joins Table to the root table
	KeyColumn string
}

// Strategy returns StrategyJoined
func (JoinedSubclass) Strategy() InheritanceStrategy { return StrategyJoined }
func (JoinedSubclass) inheritance()                  {}

// Attribute is the linked descriptor of one attribute of a mapped type
type Attribute struct {
	Name     string
	Kind     AttributeKind
	Type     PrimitiveType
	Nullable bool

	// Column is the physical column of a basic attribute. For an embedded attribute it is
	// the prefix joined to the embeddable's own columns.
	Column string

	// Target is set exactly when Kind is navigable
	Target *EntityType

	ForeignKey string

	// Declarer is the type that declared the attribute
	Declarer *EntityType
}

// IsNavigable reports whether a path may continue through the attribute
func (a *Attribute) IsNavigable() bool {
	return a.Kind.IsNavigable()
}

// EntityType is a mapped entity or embeddable type within a built Model.
// Values are created by Registry.Build and never change afterwards.
type EntityType struct {
	name          string
	documentation string
	table         string
	idColumn      string

	abstract   bool
	embeddable bool

	supertype *EntityType
	subtypes  []*EntityType

	declared   []*Attribute
	attributes map[string]*Attribute

	strategy            InheritanceStrategy
	discriminatorColumn string
	discriminatorValue  string
	inheritance         Inheritance
}

// Name returns the entity name
func (e *EntityType) Name() string { return e.name }

// String returns the entity name
func (e *EntityType) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.name
}

// Documentation returns the entity's description, if any
func (e *EntityType) Documentation() string { return e.documentation }

// Table returns the table holding this type's own columns.
// Single-table subtypes report the root's table; embeddables report "".
func (e *EntityType) Table() string { return e.table }

// IDColumn returns the identifier column shared by the hierarchy
func (e *EntityType) IDColumn() string { return e.idColumn }

// IsAbstract reports whether instances of exactly this type can exist
func (e *EntityType) IsAbstract() bool { return e.abstract }

// IsEmbeddable reports whether the type is a composite value rather than an entity
func (e *EntityType) IsEmbeddable() bool { return e.embeddable }

// Supertype returns the direct supertype or nil
func (e *EntityType) Supertype() *EntityType { return e.supertype }

// Subtypes returns the direct subtypes in declaration order
func (e *EntityType) Subtypes() []*EntityType { return e.subtypes }

// Attributes returns all attributes visible on the type, inherited ones included.
// The map is shared and must not be modified.
func (e *EntityType) Attributes() map[string]*Attribute { return e.attributes }

// DeclaredAttributes returns the attributes declared by this type, in declaration order
func (e *EntityType) DeclaredAttributes() []*Attribute { return e.declared }

// Attribute looks up a visible attribute by name
func (e *EntityType) Attribute(name string) (*Attribute, bool) {
	attr, ok := e.attributes[name]
	return attr, ok
}

// Inheritance returns the discrimination strategy in effect for the type
func (e *EntityType) Inheritance() Inheritance { return e.inheritance }

// Strategy returns the mapping strategy of the type's hierarchy
func (e *EntityType) Strategy() InheritanceStrategy { return e.strategy }

// DiscriminatorColumn returns the discriminator column of a single-table hierarchy, or ""
func (e *EntityType) DiscriminatorColumn() string { return e.discriminatorColumn }

// DiscriminatorValue returns the value stored for rows of exactly this type
func (e *EntityType) DiscriminatorValue() string { return e.discriminatorValue }

// HierarchyRoot returns the topmost supertype, or e itself
func (e *EntityType) HierarchyRoot() *EntityType {
	root := e
	for root.supertype != nil {
		root = root.supertype
	}
	return root
}

// IsSubtypeOf reports whether e is other or one of its descendants
func (e *EntityType) IsSubtypeOf(other *EntityType) bool {
	for t := e; t != nil; t = t.supertype {
		if t == other {
			return true
		}
	}
	return false
}

// SameHierarchy reports whether both types share a hierarchy root
func (e *EntityType) SameHierarchy(other *EntityType) bool {
	if e == nil || other == nil {
		return false
	}
	return e.HierarchyRoot() == other.HierarchyRoot()
}

// Descendants returns e followed by all of its subtypes, depth first
func (e *EntityType) Descendants() []*EntityType {
	result := []*EntityType{e}
	for _, sub := range e.subtypes {
		result = append(result, sub.Descendants()...)
	}
	return result
}

// Lineage returns the chain from the hierarchy root down to e
func (e *EntityType) Lineage() []*EntityType {
	var chain []*EntityType
	for t := e; t != nil; t = t.supertype {
		chain = append([]*EntityType{t}, chain...)
	}
	return chain
}

// Model is an immutable, linked set of mapped types produced by Registry.Build
type Model struct {
	entities map[string]*EntityType
	order    []string
}

var _ Metamodel = (*Model)(nil)

// Linked is a Metamodel reading attributes and inheritance straight from linked entity types
var Linked Metamodel = linked{}

type linked struct{}

func (linked) AttributesOf(t *EntityType) map[string]*Attribute { return t.Attributes() }

func (linked) InheritanceOf(t *EntityType) Inheritance { return t.Inheritance() }

// Entity looks up a mapped type by name
func (m *Model) Entity(name string) (*EntityType, bool) {
	e, ok := m.entities[name]
	return e, ok
}

// MustEntity looks up a mapped type by name and panics when it is absent
func (m *Model) MustEntity(name string) *EntityType {
	e, ok := m.entities[name]
	if !ok {
		panic("schema: unknown entity " + name)
	}
	return e
}

// AttributesOf returns every attribute visible on t
func (m *Model) AttributesOf(t *EntityType) map[string]*Attribute {
	return t.Attributes()
}

// InheritanceOf reports the discrimination strategy in effect for t
func (m *Model) InheritanceOf(t *EntityType) Inheritance {
	return t.Inheritance()
}

// Entities returns all types with supertypes ahead of their subtypes
func (m *Model) Entities() []*EntityType {
	result := make([]*EntityType, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, m.entities[name])
	}
	return result
}

// Names returns the sorted entity names
func (m *Model) Names() []string {
	names := make([]string, 0, len(m.entities))
	for name := range m.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of mapped types
func (m *Model) Count() int {
	return len(m.entities)
}
