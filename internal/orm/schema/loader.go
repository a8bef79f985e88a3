package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// metamodelFile is the on-disk form of a set of entity declarations
type metamodelFile struct {
	Entities []entityDoc `yaml:"entities"`
}

type entityDoc struct {
	Name          string           `yaml:"name"`
	Documentation string           `yaml:"doc"`
	Table         string           `yaml:"table"`
	ID            string           `yaml:"id"`
	Extends       string           `yaml:"extends"`
	Strategy      string           `yaml:"strategy"`
	Discriminator discriminatorDoc `yaml:"discriminator"`
	Abstract      bool             `yaml:"abstract"`
	Embeddable    bool             `yaml:"embeddable"`
	Attributes    []attributeDoc   `yaml:"attributes"`
}

type discriminatorDoc struct {
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
}

type attributeDoc struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	Column     string `yaml:"column"`
	Target     string `yaml:"target"`
	ForeignKey string `yaml:"foreign_key"`
}

// LoadFile reads entity declarations from a YAML metamodel file
func LoadFile(path string) ([]*EntitySchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metamodel file: %w", err)
	}

	schemas, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}

// Load decodes entity declarations from YAML
func Load(r io.Reader) ([]*EntitySchema, error) {
	var file metamodelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []*EntitySchema{}, nil
		}
		return nil, fmt.Errorf("failed to decode metamodel: %w", err)
	}

	schemas := make([]*EntitySchema, 0, len(file.Entities))
	for i, doc := range file.Entities {
		s, err := doc.toSchema()
		if err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, doc.Name, err)
		}
		schemas = append(schemas, s)
	}

	return schemas, nil
}

// LoadRegistry reads a metamodel file and registers every declaration
func LoadRegistry(path string, opts ...RegistryOption) (*Registry, error) {
	schemas, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(opts...)
	for _, s := range schemas {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (d entityDoc) toSchema() (*EntitySchema, error) {
	var s *EntitySchema
	if d.Embeddable {
		s = NewEmbeddableSchema(d.Name)
	} else {
		s = NewEntitySchema(d.Name)
	}

	s.Documentation = d.Documentation
	s.Supertype = d.Extends
	s.Abstract = d.Abstract
	s.DiscriminatorColumn = d.Discriminator.Column
	s.DiscriminatorValue = d.Discriminator.Value
	if d.Table != "" {
		s.Table = d.Table
	}
	if d.ID != "" {
		s.IDColumn = d.ID
	}

	strategy, err := ParseInheritanceStrategy(d.Strategy)
	if err != nil {
		return nil, err
	}
	s.Strategy = strategy

	for _, a := range d.Attributes {
		attr, err := a.toSchema()
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		s.Attributes = append(s.Attributes, attr)
	}

	return s, nil
}

func (d attributeDoc) toSchema() (*AttributeSchema, error) {
	kind, err := ParseAttributeKind(d.Kind)
	if err != nil {
		return nil, err
	}

	attr := &AttributeSchema{
		Name:       d.Name,
		Kind:       kind,
		Nullable:   d.Nullable,
		Column:     d.Column,
		Target:     d.Target,
		ForeignKey: d.ForeignKey,
	}

	switch kind {
	case KindBasic:
		typ := d.Type
		if typ == "" {
			typ = "string"
		}
		attr.Type, err = ParsePrimitiveType(typ)
		if err != nil {
			return nil, err
		}
		if attr.Column == "" {
			attr.Column = toSnakeCase(d.Name)
		}
	case KindEmbedded:
		if attr.Column == "" {
			attr.Column = toSnakeCase(d.Name)
		}
	case KindToOne:
		if attr.ForeignKey == "" {
			attr.ForeignKey = toSnakeCase(d.Name) + "_id"
		}
	}

	return attr, nil
}
