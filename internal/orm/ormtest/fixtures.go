// Package ormtest provides a small mapped domain shared by package tests: a plain
// order/customer graph with an embedded value, a single-table hierarchy and a joined one.
package ormtest

import (
	"testing"

	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Schemas returns fresh declarations of the fixture domain
func Schemas() []*schema.EntitySchema {
	return []*schema.EntitySchema{
		schema.NewEmbeddableSchema("ContactInfo").
			Basic("email", schema.TypeString).
			Basic("phone", schema.TypeString),

		schema.NewEntitySchema("Customer").
			Basic("id", schema.TypeString).
			Basic("name", schema.TypeString).
			Embedded("contact", "ContactInfo").
			ToMany("orders", "Order", "customer_id"),

		schema.NewEntitySchema("Order").
			Basic("id", schema.TypeString).
			Basic("totalPrice", schema.TypeDecimal).
			ToOne("customer", "Customer", "customer_id").
			ToMany("lineItems", "LineItem", "order_id").
			ToOne("shippingAddress", "Address", "shipping_address_id"),

		schema.NewEntitySchema("LineItem").
			Basic("id", schema.TypeString).
			Basic("quantity", schema.TypeInt).
			ToOne("order", "Order", "order_id").
			ToOne("product", "Product", "product_id"),

		schema.NewEntitySchema("Product").
			Basic("id", schema.TypeString).
			Basic("name", schema.TypeString).
			Basic("price", schema.TypeDecimal),

		schema.NewEntitySchema("Address").
			Basic("id", schema.TypeString).
			Basic("street", schema.TypeString).
			Basic("city", schema.TypeString).
			Basic("zip", schema.TypeString),

		schema.NewEntitySchema("Thing").
			SingleTable("dtype").
			Basic("id", schema.TypeString).
			Basic("name", schema.TypeString),

		schema.NewEntitySchema("ThingWithQuantity").
			Extends("Thing").
			Basic("quantity", schema.TypeInt),

		schema.NewEntitySchema("Vehicle").
			Joined().
			Basic("id", schema.TypeString).
			Basic("make", schema.TypeString),

		schema.NewEntitySchema("Car").
			Extends("Vehicle").
			Basic("seats", schema.TypeInt),

		schema.NewEntitySchema("Truck").
			Extends("Vehicle").
			Basic("payload", schema.TypeInt),

		schema.NewEntitySchema("SportsCar").
			Extends("Car").
			Basic("topSpeed", schema.TypeInt),
	}
}

// Model builds the fixture domain, failing the test on error
func Model(t testing.TB) *schema.Model {
	t.Helper()

	registry := schema.NewRegistry()
	for _, s := range Schemas() {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.Name, err)
		}
	}

	model, err := registry.Build()
	if err != nil {
		t.Fatalf("build fixture model: %v", err)
	}
	return model
}
