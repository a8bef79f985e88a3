// Package schema provides the entity metamodel consumed by criteria query construction.
// It defines entity declarations, attribute descriptors with explicit value kinds, and the
// inheritance information that type predicates use to discriminate concrete subtypes.
package schema

import (
	"fmt"
	"strings"
)

// PrimitiveType represents the value type of a basic attribute
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Unique identifiers
	TypeUUID
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// AttributeKind classifies how an attribute's value is mapped
type AttributeKind int

const (
	// KindBasic is a scalar column value; paths end here
	KindBasic AttributeKind = iota
	// KindEmbedded is a composite value stored in the owner's columns
	KindEmbedded
	// KindToOne is a single associated entity
	KindToOne
	// KindToMany is a collection of associated entities
	KindToMany
)

// String returns the string representation of the attribute kind
func (k AttributeKind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindEmbedded:
		return "embedded"
	case KindToOne:
		return "to_one"
	case KindToMany:
		return "to_many"
	default:
		return "unknown"
	}
}

// IsNavigable reports whether a path may continue through an attribute of this kind
func (k AttributeKind) IsNavigable() bool {
	return k == KindEmbedded || k == KindToOne || k == KindToMany
}

// IsAssociation reports whether the kind refers to another entity
func (k AttributeKind) IsAssociation() bool {
	return k == KindToOne || k == KindToMany
}

// ParseAttributeKind converts a string to an AttributeKind.
// The relationship spellings belongs_to, has_one and has_many are accepted as aliases.
func ParseAttributeKind(s string) (AttributeKind, error) {
	switch s {
	case "basic", "":
		return KindBasic, nil
	case "embedded":
		return KindEmbedded, nil
	case "to_one", "belongs_to", "has_one":
		return KindToOne, nil
	case "to_many", "has_many":
		return KindToMany, nil
	default:
		return 0, fmt.Errorf("unknown attribute kind: %s", s)
	}
}

// InheritanceStrategy is the mapping strategy declared on a hierarchy root
type InheritanceStrategy int

const (
	StrategyNone InheritanceStrategy = iota
	StrategySingleTable
	StrategyJoined
)

// String returns the string representation of the strategy
func (s InheritanceStrategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategySingleTable:
		return "single_table"
	case StrategyJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// ParseInheritanceStrategy converts a string to an InheritanceStrategy
func ParseInheritanceStrategy(s string) (InheritanceStrategy, error) {
	switch s {
	case "none", "":
		return StrategyNone, nil
	case "single_table":
		return StrategySingleTable, nil
	case "joined":
		return StrategyJoined, nil
	default:
		return 0, fmt.Errorf("unknown inheritance strategy: %s", s)
	}
}

// DefaultDiscriminatorColumn is used when a single-table root does not name one
const DefaultDiscriminatorColumn = "dtype"

// AttributeSchema declares one attribute of an entity or embeddable
type AttributeSchema struct {
	Name     string
	Kind     AttributeKind
	Type     PrimitiveType // basic only
	Nullable bool

	// Column holds the value of a basic attribute; embedded attributes use it as the
	// column prefix of their sub-attributes.
	Column string

	// Target names the entity or embeddable reached through a navigable attribute
	Target string

	// ForeignKey is the owner's column for to_one, the target's column for to_many
	ForeignKey string
}

// EntitySchema is the declaration of one mapped entity or embeddable type
type EntitySchema struct {
	Name          string
	Documentation string

	Table    string
	IDColumn string

	// Supertype names the entity this one extends
	Supertype string

	// Strategy is only meaningful on a hierarchy root
	Strategy            InheritanceStrategy
	DiscriminatorColumn string
	DiscriminatorValue  string

	Abstract   bool
	Embeddable bool

	Attributes []*AttributeSchema
}

// NewEntitySchema creates a new EntitySchema with conventional table and id names
func NewEntitySchema(name string) *EntitySchema {
	return &EntitySchema{
		Name:       name,
		Table:      toTableName(name),
		IDColumn:   "id",
		Attributes: make([]*AttributeSchema, 0),
	}
}

// NewEmbeddableSchema creates a schema for a composite value type
func NewEmbeddableSchema(name string) *EntitySchema {
	s := NewEntitySchema(name)
	s.Embeddable = true
	s.Table = ""
	s.IDColumn = ""
	return s
}

// Extends sets the supertype
func (s *EntitySchema) Extends(supertype string) *EntitySchema {
	s.Supertype = supertype
	return s
}

// SingleTable marks the schema as the root of a single-table hierarchy
func (s *EntitySchema) SingleTable(column string) *EntitySchema {
	s.Strategy = StrategySingleTable
	s.DiscriminatorColumn = column
	return s
}

// Joined marks the schema as the root of a joined-subclass hierarchy
func (s *EntitySchema) Joined() *EntitySchema {
	s.Strategy = StrategyJoined
	return s
}

// Discriminator sets the discriminator value of this type
func (s *EntitySchema) Discriminator(value string) *EntitySchema {
	s.DiscriminatorValue = value
	return s
}

// Basic adds a basic attribute mapped to a snake_case column
func (s *EntitySchema) Basic(name string, typ PrimitiveType) *EntitySchema {
	s.Attributes = append(s.Attributes, &AttributeSchema{
		Name:   name,
		Kind:   KindBasic,
		Type:   typ,
		Column: toSnakeCase(name),
	})
	return s
}

// Embedded adds an embedded attribute
func (s *EntitySchema) Embedded(name, target string) *EntitySchema {
	s.Attributes = append(s.Attributes, &AttributeSchema{
		Name:   name,
		Kind:   KindEmbedded,
		Target: target,
		Column: toSnakeCase(name),
	})
	return s
}

// ToOne adds a single-valued association stored in foreignKey on this entity's table
func (s *EntitySchema) ToOne(name, target, foreignKey string) *EntitySchema {
	s.Attributes = append(s.Attributes, &AttributeSchema{
		Name:       name,
		Kind:       KindToOne,
		Target:     target,
		ForeignKey: foreignKey,
		Nullable:   true,
	})
	return s
}

// ToMany adds a collection association stored in foreignKey on the target's table
func (s *EntitySchema) ToMany(name, target, foreignKey string) *EntitySchema {
	s.Attributes = append(s.Attributes, &AttributeSchema{
		Name:       name,
		Kind:       KindToMany,
		Target:     target,
		ForeignKey: foreignKey,
	})
	return s
}

// GetAttribute returns the declared attribute with the given name
func (s *EntitySchema) GetAttribute(name string) (*AttributeSchema, bool) {
	for _, attr := range s.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return nil, false
}

// HasAttribute returns true if the schema declares an attribute with the given name
func (s *EntitySchema) HasAttribute(name string) bool {
	_, ok := s.GetAttribute(name)
	return ok
}

// toTableName converts an entity name to a table name (snake_case plural)
func toTableName(name string) string {
	return pluralize(toSnakeCase(name))
}

// pluralize adds simple pluralization
func pluralize(s string) string {
	if strings.HasSuffix(s, "s") ||
		strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "z") {
		return s + "es"
	}
	if strings.HasSuffix(s, "y") {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			// camelCase boundary, or the end of an acronym ("HTTPServer" -> "http_server")
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}

// ToSnakeCase exposes the column naming convention to other packages
func ToSnakeCase(s string) string {
	return toSnakeCase(s)
}
