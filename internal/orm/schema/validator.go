package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Entity    string
	Attribute string
	Message   string
	Hint      string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Entity != "" {
		b.WriteString(e.Entity)
		if e.Attribute != "" {
			b.WriteString(".")
			b.WriteString(e.Attribute)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// SchemaValidator validates entity schemas
type SchemaValidator struct {
	schemas  map[string]*EntitySchema
	errors   []*ValidationError
	warnings []string
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas:  make(map[string]*EntitySchema),
		errors:   make([]*ValidationError, 0),
		warnings: make([]string, 0),
	}
}

// ValidateStructural validates a single schema without cross-entity checks.
// This is used during registration to allow forward references.
func (v *SchemaValidator) ValidateStructural(schema *EntitySchema) error {
	v.errors = make([]*ValidationError, 0)

	v.validateName(schema)
	v.validateAttributes(schema)

	return v.result()
}

// ValidateAll validates every schema against the others: targets, supertypes,
// discriminator values and attribute shadowing.
func (v *SchemaValidator) ValidateAll(schemas map[string]*EntitySchema) error {
	v.schemas = schemas
	v.errors = make([]*ValidationError, 0)
	v.warnings = make([]string, 0)

	// Sorted for stable error output
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		schema := schemas[name]
		v.validateName(schema)
		v.validateAttributes(schema)
		v.validateTargets(schema)
		v.validateSupertype(schema)
	}

	// Hierarchy-wide checks need acyclic supertype chains
	if len(v.errors) == 0 {
		for _, name := range names {
			schema := schemas[name]
			v.validateShadowing(schema)
			if schema.Supertype == "" && !schema.Embeddable {
				v.validateRoot(schema)
			}
		}
	}

	return v.result()
}

func (v *SchemaValidator) result() error {
	if len(v.errors) > 0 {
		var errMsgs []string
		for _, err := range v.errors {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("schema validation failed with %d errors:\n%s",
			len(v.errors), strings.Join(errMsgs, "\n"))
	}
	return nil
}

func (v *SchemaValidator) addError(entity, attribute, message, hint string) {
	v.errors = append(v.errors, &ValidationError{
		Entity:    entity,
		Attribute: attribute,
		Message:   message,
		Hint:      hint,
	})
}

// validateName checks entity and table identifiers
func (v *SchemaValidator) validateName(schema *EntitySchema) {
	if schema.Name == "" {
		v.addError("", "", "entity name is required", "")
		return
	}
	if !isValidIdentifier(schema.Name) {
		v.addError(schema.Name, "", "entity name must be an identifier", "")
	}
	if schema.Embeddable {
		if schema.Supertype != "" {
			v.addError(schema.Name, "", "embeddable types cannot extend another type", "")
		}
		if schema.Strategy != StrategyNone {
			v.addError(schema.Name, "", "embeddable types cannot declare an inheritance strategy", "")
		}
		return
	}
	if schema.Table != "" && !isValidIdentifier(schema.Table) {
		v.addError(schema.Name, "", fmt.Sprintf("invalid table name %q", schema.Table), "")
	}
}

// validateAttributes checks the kind/target invariant and naming of each attribute
func (v *SchemaValidator) validateAttributes(schema *EntitySchema) {
	seen := make(map[string]bool, len(schema.Attributes))

	for _, attr := range schema.Attributes {
		if attr.Name == "" {
			v.addError(schema.Name, "", "attribute name is required", "")
			continue
		}
		if seen[attr.Name] {
			v.addError(schema.Name, attr.Name, "attribute is declared more than once", "")
		}
		seen[attr.Name] = true

		switch attr.Kind {
		case KindBasic:
			if attr.Target != "" {
				v.addError(schema.Name, attr.Name, "basic attributes cannot have a target type",
					"Use kind embedded, to_one or to_many to navigate into "+attr.Target)
			}
			if attr.Column == "" || !isValidIdentifier(attr.Column) {
				v.addError(schema.Name, attr.Name, fmt.Sprintf("invalid column %q", attr.Column), "")
			}
		case KindEmbedded:
			if attr.Target == "" {
				v.addError(schema.Name, attr.Name, "embedded attributes require a target type", "")
			}
		case KindToOne, KindToMany:
			if attr.Target == "" {
				v.addError(schema.Name, attr.Name, fmt.Sprintf("%s attributes require a target type", attr.Kind), "")
			}
			if schema.Embeddable {
				v.addError(schema.Name, attr.Name, "embeddable types cannot declare associations", "")
			}
			if attr.ForeignKey == "" || !isValidIdentifier(attr.ForeignKey) {
				v.addError(schema.Name, attr.Name, fmt.Sprintf("invalid foreign key %q", attr.ForeignKey),
					"Associations are joined through a foreign key column")
			}
		default:
			v.addError(schema.Name, attr.Name, fmt.Sprintf("unknown attribute kind %d", attr.Kind), "")
		}
	}
}

// validateTargets checks that navigable attributes reach a type of the right sort
func (v *SchemaValidator) validateTargets(schema *EntitySchema) {
	for _, attr := range schema.Attributes {
		if !attr.Kind.IsNavigable() || attr.Target == "" {
			continue
		}

		target, exists := v.schemas[attr.Target]
		if !exists {
			v.addError(schema.Name, attr.Name, fmt.Sprintf("references unknown type %s", attr.Target),
				"Ensure the target type is registered")
			continue
		}

		if attr.Kind == KindEmbedded && !target.Embeddable {
			v.addError(schema.Name, attr.Name, fmt.Sprintf("embedded target %s is not embeddable", attr.Target), "")
		}
		if attr.Kind.IsAssociation() && target.Embeddable {
			v.addError(schema.Name, attr.Name, fmt.Sprintf("association target %s is embeddable", attr.Target), "")
		}
	}
}

// validateSupertype checks the extends clause of a subtype
func (v *SchemaValidator) validateSupertype(schema *EntitySchema) {
	if schema.Supertype == "" {
		return
	}

	super, exists := v.schemas[schema.Supertype]
	if !exists {
		v.addError(schema.Name, "", fmt.Sprintf("extends unknown type %s", schema.Supertype), "")
		return
	}
	if super.Embeddable {
		v.addError(schema.Name, "", fmt.Sprintf("cannot extend embeddable type %s", schema.Supertype), "")
	}
	if schema.Strategy != StrategyNone {
		v.addError(schema.Name, "", "only a hierarchy root may declare an inheritance strategy",
			"Move the strategy to the root of the hierarchy")
	}
}

// validateShadowing rejects attributes that redeclare an inherited name
func (v *SchemaValidator) validateShadowing(schema *EntitySchema) {
	visited := map[string]bool{schema.Name: true}
	for super := v.schemas[schema.Supertype]; super != nil; super = v.schemas[super.Supertype] {
		if visited[super.Name] {
			return
		}
		visited[super.Name] = true
		for _, attr := range schema.Attributes {
			if super.HasAttribute(attr.Name) {
				v.addError(schema.Name, attr.Name, fmt.Sprintf("shadows attribute inherited from %s", super.Name), "")
			}
		}
	}
}

// validateRoot checks hierarchy-wide settings owned by a root entity
func (v *SchemaValidator) validateRoot(root *EntitySchema) {
	members := v.members(root)

	if !hasColumn(root, idColumnOf(root)) {
		v.addError(root.Name, "", fmt.Sprintf("no basic attribute maps id column %q", idColumnOf(root)),
			"Declare the identifier as a basic attribute on the hierarchy root")
	}

	for _, member := range members {
		if member.Abstract && len(v.members(member)) == 1 {
			v.warnings = append(v.warnings,
				fmt.Sprintf("%s is abstract but has no subtypes; no row can ever match it", member.Name))
		}
	}

	if len(members) == 1 {
		return
	}

	switch root.Strategy {
	case StrategyNone:
		v.addError(root.Name, "", "hierarchy root with subtypes must declare an inheritance strategy",
			"Use strategy single_table or joined")
	case StrategySingleTable:
		values := make(map[string]string)
		for _, member := range members {
			value := member.DiscriminatorValue
			if value == "" {
				value = member.Name
			}
			if strings.Contains(value, `\`) {
				v.addError(member.Name, "", fmt.Sprintf("discriminator value %q contains a backslash", value),
					"Remove the backslash from the discriminator value")
			}
			if other, dup := values[value]; dup {
				v.addError(member.Name, "", fmt.Sprintf("discriminator value %q is already used by %s", value, other), "")
			}
			values[value] = member.Name
		}
	case StrategyJoined:
		tables := make(map[string]string)
		for _, member := range members {
			table := tableOf(member)
			if other, dup := tables[table]; dup {
				v.addError(member.Name, "", fmt.Sprintf("table %q is already used by %s", table, other),
					"Joined subtypes need their own table")
			}
			tables[table] = member.Name
		}
	}
}

// members returns root and every schema that transitively extends it
func (v *SchemaValidator) members(root *EntitySchema) []*EntitySchema {
	result := []*EntitySchema{root}
	names := make([]string, 0)
	for name, s := range v.schemas {
		if s.Supertype == root.Name {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		result = append(result, v.members(v.schemas[name])...)
	}
	return result
}

// Errors returns all validation errors
func (v *SchemaValidator) Errors() []*ValidationError {
	return v.errors
}

// Warnings returns all validation warnings
func (v *SchemaValidator) Warnings() []string {
	return v.warnings
}

func hasColumn(schema *EntitySchema, column string) bool {
	for _, attr := range schema.Attributes {
		if attr.Kind == KindBasic && attr.Column == column {
			return true
		}
	}
	return false
}

// isValidIdentifier checks if a string is a valid SQL identifier
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, char := range s {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(i > 0 && char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
