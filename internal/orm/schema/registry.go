package schema

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry collects entity schemas during startup and links them into an immutable Model
type Registry struct {
	schemas   map[string]*EntitySchema
	validator *SchemaValidator
	logger    *zap.Logger
	mu        sync.RWMutex
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the logger used while registering and building
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a new schema registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		schemas:   make(map[string]*EntitySchema),
		validator: NewSchemaValidator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register registers a new entity or embeddable schema
func (r *Registry) Register(schema *EntitySchema) error {
	if schema == nil {
		return fmt.Errorf("schema cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("entity %s is already registered", schema.Name)
	}

	// Cross-entity checks wait for Build so forward references work
	if err := r.validator.ValidateStructural(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schema.Name, err)
	}

	r.schemas[schema.Name] = schema
	r.logger.Debug("registered entity",
		zap.String("entity", schema.Name),
		zap.Int("attributes", len(schema.Attributes)))

	return nil
}

// MustRegister registers schemas and panics on the first error
func (r *Registry) MustRegister(schemas ...*EntitySchema) *Registry {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a schema by name
func (r *Registry) Get(name string) (*EntitySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	return schema, exists
}

// All returns a copy of all registered schemas
func (r *Registry) All() map[string]*EntitySchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*EntitySchema, len(r.schemas))
	for k, v := range r.schemas {
		result[k] = v
	}
	return result
}

// List returns a list of all registered names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// Exists checks if a schema is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[name]
	return exists
}

// Clear removes all registered schemas (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas = make(map[string]*EntitySchema)
}

// Warnings returns the warnings of the last validation run
func (r *Registry) Warnings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.validator.Warnings()
}

// AnalyzeHierarchy returns the inheritance structure of the registered schemas
func (r *Registry) AnalyzeHierarchy() *HierarchyReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return AnalyzeHierarchy(r.schemas)
}

// Build validates all schemas and links them into an immutable Model.
// Later registrations do not affect a Model that was already built.
func (r *Registry) Build() (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	graph := NewHierarchyGraph(r.schemas)
	if cycles := graph.DetectCycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("circular inheritance detected:\n%s", formatCycles(cycles))
	}

	if err := r.validator.ValidateAll(r.schemas); err != nil {
		return nil, fmt.Errorf("model validation failed: %w", err)
	}
	for _, warning := range r.validator.Warnings() {
		r.logger.Warn("schema warning", zap.String("warning", warning))
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	model := &Model{
		entities: make(map[string]*EntityType, len(order)),
		order:    order,
	}

	for _, name := range order {
		s := r.schemas[name]
		model.entities[name] = &EntityType{
			name:          s.Name,
			documentation: s.Documentation,
			abstract:      s.Abstract,
			embeddable:    s.Embeddable,
			subtypes:      make([]*EntityType, 0),
			declared:      make([]*Attribute, 0, len(s.Attributes)),
			attributes:    make(map[string]*Attribute),
		}
	}

	// Supertypes precede subtypes in order, so each pass sees its parents complete
	for _, name := range order {
		s := r.schemas[name]
		if s.Supertype == "" {
			continue
		}
		e := model.entities[name]
		super := model.entities[s.Supertype]
		e.supertype = super
		super.subtypes = append(super.subtypes, e)
	}

	for _, name := range order {
		r.linkStorage(model.entities[name], r.schemas[name])
	}

	for _, name := range order {
		r.linkAttributes(model, model.entities[name], r.schemas[name])
	}

	r.logger.Debug("model built",
		zap.Int("entities", len(order)),
		zap.Strings("order", order))

	return model, nil
}

// linkStorage resolves table, id column and inheritance for one type
func (r *Registry) linkStorage(e *EntityType, s *EntitySchema) {
	e.discriminatorValue = s.DiscriminatorValue
	if e.discriminatorValue == "" {
		e.discriminatorValue = s.Name
	}

	if e.embeddable {
		e.inheritance = NoInheritance{}
		return
	}

	root := e.HierarchyRoot()
	rootSchema := r.schemas[root.name]
	e.idColumn = idColumnOf(rootSchema)
	e.table = tableOf(s)

	if len(root.subtypes) == 0 {
		e.strategy = StrategyNone
		e.inheritance = NoInheritance{}
		return
	}

	e.strategy = rootSchema.Strategy
	switch rootSchema.Strategy {
	case StrategySingleTable:
		column := rootSchema.DiscriminatorColumn
		if column == "" {
			column = DefaultDiscriminatorColumn
		}
		e.table = tableOf(rootSchema)
		e.discriminatorColumn = column
		e.inheritance = SingleDiscriminator{
			Root:   root,
			Column: column,
			Value:  e.discriminatorValue,
		}
	case StrategyJoined:
		e.inheritance = JoinedSubclass{
			Root:      root,
			Table:     e.table,
			KeyColumn: e.idColumn,
		}
	default:
		// ValidateAll rejects strategy-less hierarchies
		e.inheritance = NoInheritance{}
	}
}

// linkAttributes copies inherited attributes and resolves declared ones
func (r *Registry) linkAttributes(model *Model, e *EntityType, s *EntitySchema) {
	if e.supertype != nil {
		for name, attr := range e.supertype.attributes {
			e.attributes[name] = attr
		}
	}

	for _, decl := range s.Attributes {
		attr := &Attribute{
			Name:       decl.Name,
			Kind:       decl.Kind,
			Type:       decl.Type,
			Nullable:   decl.Nullable,
			Column:     decl.Column,
			ForeignKey: decl.ForeignKey,
			Declarer:   e,
		}
		if decl.Kind.IsNavigable() {
			attr.Target = model.entities[decl.Target]
			if attr.Column == "" {
				attr.Column = toSnakeCase(decl.Name)
			}
		}
		e.declared = append(e.declared, attr)
		e.attributes[decl.Name] = attr
	}
}

func tableOf(s *EntitySchema) string {
	if s.Table != "" {
		return s.Table
	}
	return toTableName(s.Name)
}

func idColumnOf(s *EntitySchema) string {
	if s.IDColumn != "" {
		return s.IDColumn
	}
	return "id"
}
