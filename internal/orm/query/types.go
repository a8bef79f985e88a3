package query

import (
	"fmt"

	"github.com/conduit-lang/criteria/internal/orm/path"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// TypeExpression evaluates to the concrete mapped type of the instance a path reaches.
//
// This is a sealed interface: IdentityType, DiscriminatorType and JoinedType are the only
// implementations, one per inheritance strategy.
type TypeExpression interface {
	// Path returns the node whose type is inspected
	Path() *path.Node
	typeExpression()
}

// IdentityType is the type of a path whose bound type shares storage with no other type.
// Every row in scope has exactly that type, so it never references a column.
type IdentityType struct {
	path *path.Node
	// Type is nil for paths ending at a basic attribute
	Type *schema.EntityType
}

// Path returns the inspected node
func (e *IdentityType) Path() *path.Node { return e.path }
func (*IdentityType) typeExpression()    {}

// DiscriminatorType reads the discriminator column of a single-table hierarchy
type DiscriminatorType struct {
	path   *path.Node
	Root   *schema.EntityType
	Column string
}

// Path returns the inspected node
func (e *DiscriminatorType) Path() *path.Node { return e.path }
func (*DiscriminatorType) typeExpression()    {}

// JoinedType identifies a row's type by the subtype tables it has rows in
type JoinedType struct {
	path *path.Node
	Root *schema.EntityType
}

// Path returns the inspected node
func (e *JoinedType) Path() *path.Node { return e.path }
func (*JoinedType) typeExpression()    {}

// TypeBuilder builds type expressions, reading each type's inheritance through a Metamodel
type TypeBuilder struct {
	metamodel schema.Metamodel
}

// NewTypeBuilder creates a builder reading inheritance from metamodel
func NewTypeBuilder(metamodel schema.Metamodel) *TypeBuilder {
	return &TypeBuilder{metamodel: metamodel}
}

var defaultTypes = &TypeBuilder{metamodel: schema.Linked}

// TypeOf builds the type expression of node from the inheritance linked into its bound
// type. It never fails.
func TypeOf(node *path.Node) TypeExpression {
	return defaultTypes.TypeOf(node)
}

// TypeOf builds the type expression of node. It never fails.
func (b *TypeBuilder) TypeOf(node *path.Node) TypeExpression {
	bound := node.BoundType()
	if bound == nil {
		return &IdentityType{path: node}
	}

	switch info := b.metamodel.InheritanceOf(bound).(type) {
	case schema.NoInheritance:
		return &IdentityType{path: node, Type: bound}
	case schema.SingleDiscriminator:
		return &DiscriminatorType{path: node, Root: info.Root, Column: info.Column}
	case schema.JoinedSubclass:
		return &JoinedType{path: node, Root: info.Root}
	default:
		panic(fmt.Sprintf("query: unhandled inheritance %T", info))
	}
}

// TypeEquals compares a type expression with a literal type.
//
// The literal is not checked against the path's type: a literal that cannot occur
// yields a predicate that is never satisfied.
func TypeEquals(expr TypeExpression, literal *schema.EntityType) Predicate {
	switch e := expr.(type) {
	case *IdentityType:
		return Constant{Value: e.Type != nil && e.Type == literal}
	case *DiscriminatorType:
		if !literal.SameHierarchy(e.Root) {
			return Constant{Value: false}
		}
		return &DiscriminatorEquals{
			Path:    e.path,
			Column:  e.Column,
			Value:   literal.DiscriminatorValue(),
			Literal: literal,
		}
	case *JoinedType:
		if !literal.SameHierarchy(e.Root) {
			return Constant{Value: false}
		}
		return &JoinedTypeEquals{
			Path:    e.path,
			Root:    e.Root,
			Literal: literal,
		}
	default:
		panic(fmt.Sprintf("query: unhandled type expression %T", expr))
	}
}

// TypeIn matches instances whose concrete type is any of literals
func TypeIn(expr TypeExpression, literals ...*schema.EntityType) Predicate {
	preds := make([]Predicate, 0, len(literals))
	for _, literal := range literals {
		preds = append(preds, TypeEquals(expr, literal))
	}
	return Or(preds...)
}

// TypeNotEquals matches instances whose concrete type is not literal
func TypeNotEquals(expr TypeExpression, literal *schema.EntityType) Predicate {
	return Not(TypeEquals(expr, literal))
}
