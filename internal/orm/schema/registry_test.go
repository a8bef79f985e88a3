package schema

import (
	"strings"
	"testing"
)

func catalogSchemas() []*EntitySchema {
	return []*EntitySchema{
		NewEmbeddableSchema("Money").
			Basic("amount", TypeDecimal).
			Basic("currency", TypeString),

		NewEntitySchema("Product").
			Basic("id", TypeUUID).
			Basic("name", TypeString).
			Embedded("price", "Money").
			ToOne("supplier", "Supplier", "supplier_id"),

		NewEntitySchema("Supplier").
			Basic("id", TypeUUID).
			Basic("name", TypeString).
			ToMany("products", "Product", "supplier_id"),

		NewEntitySchema("Thing").
			SingleTable("").
			Basic("id", TypeString).
			Basic("name", TypeString),

		NewEntitySchema("ThingWithQuantity").
			Extends("Thing").
			Basic("quantity", TypeInt),

		NewEntitySchema("LabelledThing").
			Extends("Thing").
			Discriminator("L").
			Basic("label", TypeString),

		NewEntitySchema("Vehicle").
			Joined().
			Basic("id", TypeString).
			Basic("make", TypeString),

		NewEntitySchema("Car").
			Extends("Vehicle").
			Basic("seats", TypeInt),

		NewEntitySchema("SportsCar").
			Extends("Car").
			Basic("topSpeed", TypeInt),

		NewEntitySchema("Standalone").
			Joined().
			Basic("id", TypeString),
	}
}

func buildCatalog(t *testing.T) *Model {
	t.Helper()

	registry := NewRegistry().MustRegister(catalogSchemas()...)
	model, err := registry.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return model
}

func TestRegistry(t *testing.T) {
	t.Run("register and get schema", func(t *testing.T) {
		registry := NewRegistry()

		err := registry.Register(NewEntitySchema("Post").Basic("id", TypeUUID))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		retrieved, exists := registry.Get("Post")
		if !exists {
			t.Fatal("schema should exist")
		}
		if retrieved.Table != "posts" {
			t.Errorf("expected table posts, got %s", retrieved.Table)
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		registry := NewRegistry()

		registry.Register(NewEntitySchema("Post").Basic("id", TypeUUID))
		err := registry.Register(NewEntitySchema("Post").Basic("id", TypeUUID))
		if err == nil {
			t.Error("expected error for duplicate registration")
		}
	})

	t.Run("nil schema", func(t *testing.T) {
		if err := NewRegistry().Register(nil); err == nil {
			t.Error("expected error for nil schema")
		}
	})

	t.Run("structural errors are rejected at registration", func(t *testing.T) {
		s := NewEntitySchema("Post").Basic("id", TypeUUID)
		s.Attributes = append(s.Attributes, &AttributeSchema{Name: "author", Kind: KindToOne})

		err := NewRegistry().Register(s)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "to_one attributes require a target type") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("list count exists clear", func(t *testing.T) {
		registry := NewRegistry().MustRegister(catalogSchemas()...)

		if registry.Count() != 10 {
			t.Errorf("expected 10 schemas, got %d", registry.Count())
		}
		if len(registry.List()) != 10 {
			t.Errorf("expected 10 names, got %d", len(registry.List()))
		}
		if !registry.Exists("Car") {
			t.Error("Car should exist")
		}
		if len(registry.All()) != 10 {
			t.Errorf("expected 10 schemas from All")
		}

		registry.Clear()
		if registry.Count() != 0 {
			t.Errorf("expected empty registry after Clear, got %d", registry.Count())
		}
	})
}

func TestBuild_SingleTableHierarchy(t *testing.T) {
	model := buildCatalog(t)
	thing := model.MustEntity("Thing")
	quantity := model.MustEntity("ThingWithQuantity")
	labelled := model.MustEntity("LabelledThing")

	info, ok := thing.Inheritance().(SingleDiscriminator)
	if !ok {
		t.Fatalf("expected SingleDiscriminator, got %T", thing.Inheritance())
	}
	if info.Root != thing || info.Column != DefaultDiscriminatorColumn || info.Value != "Thing" {
		t.Errorf("unexpected inheritance %+v", info)
	}

	sub, ok := quantity.Inheritance().(SingleDiscriminator)
	if !ok {
		t.Fatalf("expected SingleDiscriminator, got %T", quantity.Inheritance())
	}
	if sub.Root != thing || sub.Value != "ThingWithQuantity" {
		t.Errorf("unexpected subtype inheritance %+v", sub)
	}
	if labelled.DiscriminatorValue() != "L" {
		t.Errorf("expected declared discriminator value L, got %s", labelled.DiscriminatorValue())
	}

	if quantity.Table() != "things" {
		t.Errorf("single-table subtype should share the root table, got %s", quantity.Table())
	}
	if quantity.Strategy() != StrategySingleTable {
		t.Errorf("expected single_table, got %s", quantity.Strategy())
	}

	for _, name := range []string{"id", "name", "quantity"} {
		if _, ok := quantity.Attribute(name); !ok {
			t.Errorf("ThingWithQuantity should expose %s", name)
		}
	}
	if _, ok := thing.Attribute("quantity"); ok {
		t.Error("supertype should not see subtype attributes")
	}

	name, _ := quantity.Attribute("name")
	if name.Declarer != thing {
		t.Errorf("inherited attribute should keep its declarer, got %s", name.Declarer)
	}
	if len(quantity.DeclaredAttributes()) != 1 {
		t.Errorf("expected 1 declared attribute, got %d", len(quantity.DeclaredAttributes()))
	}
}

func TestBuild_JoinedHierarchy(t *testing.T) {
	model := buildCatalog(t)
	vehicle := model.MustEntity("Vehicle")
	car := model.MustEntity("Car")
	sports := model.MustEntity("SportsCar")

	info, ok := sports.Inheritance().(JoinedSubclass)
	if !ok {
		t.Fatalf("expected JoinedSubclass, got %T", sports.Inheritance())
	}
	if info.Root != vehicle || info.Table != "sports_cars" || info.KeyColumn != "id" {
		t.Errorf("unexpected inheritance %+v", info)
	}
	if car.Table() != "cars" {
		t.Errorf("joined subtype should have its own table, got %s", car.Table())
	}

	if !sports.IsSubtypeOf(vehicle) || !sports.IsSubtypeOf(sports) || vehicle.IsSubtypeOf(car) {
		t.Error("unexpected subtype relation")
	}
	if sports.HierarchyRoot() != vehicle {
		t.Errorf("expected root Vehicle, got %s", sports.HierarchyRoot())
	}
	if !sports.SameHierarchy(car) || sports.SameHierarchy(model.MustEntity("Thing")) {
		t.Error("unexpected hierarchy membership")
	}

	lineage := sports.Lineage()
	if len(lineage) != 3 || lineage[0] != vehicle || lineage[2] != sports {
		t.Errorf("unexpected lineage %v", lineage)
	}

	descendants := vehicle.Descendants()
	if len(descendants) != 3 || descendants[0] != vehicle {
		t.Errorf("unexpected descendants %v", descendants)
	}
}

func TestBuild_NoInheritance(t *testing.T) {
	model := buildCatalog(t)

	for _, name := range []string{"Product", "Supplier", "Money", "Standalone"} {
		t.Run(name, func(t *testing.T) {
			e := model.MustEntity(name)
			if _, ok := e.Inheritance().(NoInheritance); !ok {
				t.Errorf("expected NoInheritance, got %T", e.Inheritance())
			}
			if e.Strategy() != StrategyNone {
				t.Errorf("expected strategy none, got %s", e.Strategy())
			}
		})
	}

	money := model.MustEntity("Money")
	if !money.IsEmbeddable() || money.Table() != "" {
		t.Errorf("embeddable should have no table, got %q", money.Table())
	}
}

func TestBuild_Associations(t *testing.T) {
	model := buildCatalog(t)
	product := model.MustEntity("Product")

	supplier, _ := product.Attribute("supplier")
	if supplier.Target != model.MustEntity("Supplier") {
		t.Errorf("expected target Supplier, got %s", supplier.Target)
	}
	if !supplier.IsNavigable() || supplier.ForeignKey != "supplier_id" {
		t.Errorf("unexpected attribute %+v", supplier)
	}

	price, _ := product.Attribute("price")
	if price.Target != model.MustEntity("Money") || price.Column != "price" {
		t.Errorf("unexpected embedded attribute %+v", price)
	}

	id, _ := product.Attribute("id")
	if id.Target != nil || id.IsNavigable() {
		t.Error("basic attributes have no target")
	}
}

func TestBuild_ModelOrder(t *testing.T) {
	model := buildCatalog(t)

	position := make(map[string]int)
	for i, e := range model.Entities() {
		position[e.Name()] = i
	}
	for _, e := range model.Entities() {
		if super := e.Supertype(); super != nil && position[super.Name()] > position[e.Name()] {
			t.Errorf("%s listed before its supertype %s", e.Name(), super.Name())
		}
	}

	if model.Count() != 10 {
		t.Errorf("expected 10 entities, got %d", model.Count())
	}
	names := model.Names()
	if names[0] != "Car" || names[len(names)-1] != "Vehicle" {
		t.Errorf("names should be sorted, got %v", names)
	}
	if _, ok := model.Entity("Nope"); ok {
		t.Error("unknown entity should not be found")
	}
}

func TestBuild_IsIsolatedFromLaterRegistrations(t *testing.T) {
	registry := NewRegistry().MustRegister(catalogSchemas()...)
	model, err := registry.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	registry.MustRegister(NewEntitySchema("Truck").Extends("Vehicle").Basic("payload", TypeInt))
	if len(model.MustEntity("Vehicle").Subtypes()) != 1 {
		t.Error("built model should not see later registrations")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		schemas []*EntitySchema
		want    string
	}{
		{
			name: "circular inheritance",
			schemas: []*EntitySchema{
				NewEntitySchema("A").Extends("B").Basic("id", TypeString),
				NewEntitySchema("B").Extends("A").Basic("id", TypeString),
			},
			want: "circular inheritance detected",
		},
		{
			name: "unknown target",
			schemas: []*EntitySchema{
				NewEntitySchema("Post").Basic("id", TypeString).ToOne("author", "User", "author_id"),
			},
			want: "references unknown type User",
		},
		{
			name: "unknown supertype",
			schemas: []*EntitySchema{
				NewEntitySchema("Car").Extends("Vehicle").Basic("id", TypeString),
			},
			want: "extends unknown type Vehicle",
		},
		{
			name: "hierarchy without strategy",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").Basic("id", TypeString),
				NewEntitySchema("Dog").Extends("Animal"),
			},
			want: "must declare an inheritance strategy",
		},
		{
			name: "strategy on a subtype",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").Joined().Basic("id", TypeString),
				NewEntitySchema("Dog").Extends("Animal").Joined(),
			},
			want: "only a hierarchy root may declare an inheritance strategy",
		},
		{
			name: "duplicate discriminator value",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").SingleTable("kind").Basic("id", TypeString),
				NewEntitySchema("Dog").Extends("Animal").Discriminator("pet"),
				NewEntitySchema("Cat").Extends("Animal").Discriminator("pet"),
			},
			want: `discriminator value "pet" is already used`,
		},
		{
			name: "backslash in discriminator value",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").SingleTable("kind").Basic("id", TypeString),
				NewEntitySchema("Dog").Extends("Animal").Discriminator(`pets\dog`),
			},
			want: `discriminator value "pets\\dog" contains a backslash`,
		},
		{
			name: "joined subtypes sharing a table",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").Joined().Basic("id", TypeString),
				func() *EntitySchema {
					s := NewEntitySchema("Dog").Extends("Animal")
					s.Table = "animals"
					return s
				}(),
			},
			want: `table "animals" is already used`,
		},
		{
			name: "shadowed attribute",
			schemas: []*EntitySchema{
				NewEntitySchema("Animal").Joined().Basic("id", TypeString).Basic("name", TypeString),
				NewEntitySchema("Dog").Extends("Animal").Basic("name", TypeString),
			},
			want: "shadows attribute inherited from Animal",
		},
		{
			name: "missing identifier",
			schemas: []*EntitySchema{
				NewEntitySchema("Post").Basic("title", TypeString),
			},
			want: `no basic attribute maps id column "id"`,
		},
		{
			name: "embedding an entity",
			schemas: []*EntitySchema{
				NewEntitySchema("User").Basic("id", TypeString),
				NewEntitySchema("Post").Basic("id", TypeString).Embedded("author", "User"),
			},
			want: "embedded target User is not embeddable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			for _, s := range tt.schemas {
				if err := registry.Register(s); err != nil {
					t.Fatalf("unexpected register error: %v", err)
				}
			}

			_, err := registry.Build()
			if err == nil {
				t.Fatal("expected build error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestBuild_AbstractWithoutSubtypesWarns(t *testing.T) {
	s := NewEntitySchema("Shape").Basic("id", TypeString)
	s.Abstract = true

	registry := NewRegistry().MustRegister(s)
	if _, err := registry.Build(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	warnings := registry.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Shape is abstract") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}
