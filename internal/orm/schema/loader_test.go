package schema

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile(t *testing.T) {
	schemas, err := LoadFile(filepath.Join("testdata", "metamodel.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schemas) != 5 {
		t.Fatalf("expected 5 schemas, got %d", len(schemas))
	}

	contact := schemas[0]
	if !contact.Embeddable || contact.Table != "" {
		t.Errorf("ContactInfo should be embeddable, got %+v", contact)
	}
	phone, _ := contact.GetAttribute("phone")
	if !phone.Nullable || phone.Type != TypeString || phone.Column != "phone" {
		t.Errorf("unexpected phone attribute %+v", phone)
	}

	customer := schemas[1]
	if customer.Documentation != "A person who places orders" {
		t.Errorf("unexpected doc %q", customer.Documentation)
	}
	orders, _ := customer.GetAttribute("orders")
	if orders.Kind != KindToMany || orders.ForeignKey != "customer_id" {
		t.Errorf("unexpected orders attribute %+v", orders)
	}

	order := schemas[2]
	total, _ := order.GetAttribute("totalPrice")
	if total.Type != TypeDecimal || total.Column != "total_price" {
		t.Errorf("unexpected totalPrice attribute %+v", total)
	}
	buyer, _ := order.GetAttribute("customer")
	if buyer.Kind != KindToOne || buyer.ForeignKey != "customer_id" {
		t.Errorf("belongs_to should default the foreign key, got %+v", buyer)
	}

	thing := schemas[3]
	if thing.Strategy != StrategySingleTable || thing.DiscriminatorColumn != "kind" {
		t.Errorf("unexpected Thing %+v", thing)
	}
	if schemas[4].Supertype != "Thing" || schemas[4].DiscriminatorValue != "TWQ" {
		t.Errorf("unexpected ThingWithQuantity %+v", schemas[4])
	}
}

func TestLoadRegistry_Builds(t *testing.T) {
	registry, err := LoadRegistry(filepath.Join("testdata", "metamodel.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	model, err := registry.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	info, ok := model.MustEntity("ThingWithQuantity").Inheritance().(SingleDiscriminator)
	if !ok {
		t.Fatalf("expected SingleDiscriminator")
	}
	if info.Column != "kind" || info.Value != "TWQ" {
		t.Errorf("unexpected inheritance %+v", info)
	}

	email, ok := model.MustEntity("Customer").Attribute("contact")
	if !ok || email.Target.Name() != "ContactInfo" {
		t.Errorf("contact should target ContactInfo")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"unknown_field.yaml", "field colour not found"},
		{"bad_strategy.yaml", "unknown inheritance strategy: table_per_class"},
		{"missing.yaml", "failed to read metamodel file"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadFile(filepath.Join("testdata", tt.file))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	schemas, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schemas) != 0 {
		t.Errorf("expected no schemas, got %d", len(schemas))
	}
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := Load(strings.NewReader("entities:\n  - name: A\n    attributes:\n      - name: x\n        kind: many_to_many\n"))
	if err == nil || !strings.Contains(err.Error(), "attribute x: unknown attribute kind: many_to_many") {
		t.Errorf("unexpected error: %v", err)
	}
}
