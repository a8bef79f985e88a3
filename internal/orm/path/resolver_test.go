package path

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/criteria/internal/orm/ormtest"
	"github.com/conduit-lang/criteria/internal/orm/schema"
)

func TestNewRoot(t *testing.T) {
	model := ormtest.Model(t)

	for _, entity := range model.Entities() {
		t.Run(entity.Name(), func(t *testing.T) {
			root := NewRoot(entity)

			assert.Equal(t, 0, root.Depth())
			assert.Nil(t, root.Parent())
			assert.Nil(t, root.Attribute())
			assert.Nil(t, root.Source())
			assert.Same(t, entity, root.BoundType())
			assert.True(t, root.IsRoot())
			assert.False(t, root.IsTerminal())
			assert.Same(t, root, root.Root())
			assert.Empty(t, root.Segments())
			assert.Equal(t, entity.Name(), root.String())
		})
	}
}

func TestResolve_UnknownAttribute(t *testing.T) {
	model := ormtest.Model(t)
	address := model.MustEntity("Address")

	child, err := Resolve(NewRoot(address), "nonexistent")
	require.Error(t, err)
	assert.Nil(t, child)

	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrIllegalState))
	assert.True(t, IsUnknownAttribute(err))

	var unknown *UnknownAttributeError
	require.True(t, errors.As(err, &unknown))
	assert.Same(t, address, unknown.OnType)
	assert.Equal(t, "nonexistent", unknown.Name)
	assert.Equal(t, `unable to locate attribute "nonexistent" on Address`, err.Error())
}

func TestResolve_IllegalDereference(t *testing.T) {
	model := ormtest.Model(t)
	address := model.MustEntity("Address")
	street := NewRoot(address).MustGet("street")
	require.True(t, street.IsTerminal())

	// The name is checked after the terminal test, so even existing names fail the same way
	for _, name := range []string{"anything", "street", "city"} {
		t.Run(name, func(t *testing.T) {
			child, err := Resolve(street, name)
			require.Error(t, err)
			assert.Nil(t, child)

			assert.True(t, errors.Is(err, ErrIllegalState))
			assert.False(t, errors.Is(err, ErrInvalidArgument))
			assert.True(t, IsIllegalDereference(err))

			var illegal *IllegalDereferenceError
			require.True(t, errors.As(err, &illegal))
			assert.Same(t, address, illegal.OnType)
			assert.Equal(t, "street", illegal.Attribute)
			assert.Equal(t, name, illegal.AttemptedName)
		})
	}
}

func TestResolve_IllegalDereferenceReportsDeclaringSide(t *testing.T) {
	model := ormtest.Model(t)
	name := NewRoot(model.MustEntity("Order")).MustGet("customer").MustGet("name")

	_, err := name.Get("first")
	var illegal *IllegalDereferenceError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, "Customer", illegal.OnType.Name())
	assert.Equal(t, `illegal attempt to dereference "first" through basic attribute Customer.name`, err.Error())
}

func TestResolve_IsDeterministic(t *testing.T) {
	model := ormtest.Model(t)
	root := NewRoot(model.MustEntity("Order"))

	for name := range model.MustEntity("Order").Attributes() {
		first, err := root.Get(name)
		require.NoError(t, err)
		second, err := root.Get(name)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.True(t, first.Equal(second), name)
		assert.Equal(t, first.String(), second.String())
	}

	customer := root.MustGet("customer")
	assert.False(t, customer.Equal(root.MustGet("shippingAddress")))
	assert.False(t, customer.Equal(root))
}

func TestResolve_ChildShape(t *testing.T) {
	model := ormtest.Model(t)
	order := model.MustEntity("Order")
	root := NewRoot(order)

	tests := []struct {
		name     string
		kind     schema.AttributeKind
		bound    string
		terminal bool
	}{
		{"id", schema.KindBasic, "", true},
		{"totalPrice", schema.KindBasic, "", true},
		{"customer", schema.KindToOne, "Customer", false},
		{"lineItems", schema.KindToMany, "LineItem", false},
		{"shippingAddress", schema.KindToOne, "Address", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, err := root.Get(tt.name)
			require.NoError(t, err)

			assert.Equal(t, 1, child.Depth())
			assert.Same(t, root, child.Parent())
			assert.Same(t, order, child.Source())
			assert.Equal(t, tt.kind, child.Attribute().Kind)
			assert.Equal(t, tt.terminal, child.IsTerminal())
			if tt.bound == "" {
				assert.Nil(t, child.BoundType())
			} else {
				assert.Equal(t, tt.bound, child.BoundType().Name())
			}
		})
	}
}

func TestResolve_InheritedAttributes(t *testing.T) {
	model := ormtest.Model(t)
	sportsCar := NewRoot(model.MustEntity("SportsCar"))

	for _, name := range []string{"id", "make", "seats", "topSpeed"} {
		child, err := sportsCar.Get(name)
		require.NoError(t, err, name)
		assert.True(t, child.IsTerminal())
	}

	_, err := NewRoot(model.MustEntity("Car")).Get("payload")
	assert.True(t, IsUnknownAttribute(err))
}

func TestResolve_EmbeddedNavigation(t *testing.T) {
	model := ormtest.Model(t)
	contact := NewRoot(model.MustEntity("Customer")).MustGet("contact")

	assert.False(t, contact.IsTerminal())
	assert.Equal(t, "ContactInfo", contact.BoundType().Name())

	email, err := contact.Get("email")
	require.NoError(t, err)
	assert.Equal(t, "Customer.contact.email", email.String())
	assert.Equal(t, []string{"contact", "email"}, email.Segments())
	assert.Equal(t, 2, email.Depth())
}

func TestResolve_NilParent(t *testing.T) {
	_, err := Resolve(nil, "id")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestResolvePath(t *testing.T) {
	model := ormtest.Model(t)
	root := NewRoot(model.MustEntity("LineItem"))

	t.Run("resolves every segment", func(t *testing.T) {
		node, err := root.GetPath("order.customer.contact.email")
		require.NoError(t, err)
		assert.Equal(t, 4, node.Depth())
		assert.Equal(t, "LineItem.order.customer.contact.email", node.String())
		assert.True(t, node.Root().Equal(root))
	})

	t.Run("unknown segment keeps its class", func(t *testing.T) {
		_, err := root.GetPath("order.buyer.name")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Contains(t, err.Error(), "resolving order.buyer")

		var unknown *UnknownAttributeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "Order", unknown.OnType.Name())
		assert.Equal(t, "buyer", unknown.Name)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		_, err := root.GetPath("quantity.value.nonexistent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIllegalState))

		var illegal *IllegalDereferenceError
		require.True(t, errors.As(err, &illegal))
		assert.Equal(t, "value", illegal.AttemptedName)
	})

	t.Run("first segment is not wrapped", func(t *testing.T) {
		_, err := root.GetPath("nope")
		assert.Equal(t, `unable to locate attribute "nope" on LineItem`, err.Error())
	})
}

// restrictedMetamodel hides every attribute not listed
type restrictedMetamodel struct {
	schema.Metamodel
	visible map[string]bool
}

func (m restrictedMetamodel) AttributesOf(t *schema.EntityType) map[string]*schema.Attribute {
	result := make(map[string]*schema.Attribute)
	for name, attr := range t.Attributes() {
		if m.visible[name] {
			result[name] = attr
		}
	}
	return result
}

func TestResolver_UsesMetamodel(t *testing.T) {
	model := ormtest.Model(t)
	resolver := NewResolver(restrictedMetamodel{Metamodel: model, visible: map[string]bool{"id": true}})
	root := NewRoot(model.MustEntity("Product"))

	_, err := resolver.Resolve(root, "id")
	require.NoError(t, err)

	_, err = resolver.Resolve(root, "name")
	assert.True(t, IsUnknownAttribute(err))
}

func TestMustGet_Panics(t *testing.T) {
	model := ormtest.Model(t)
	assert.Panics(t, func() {
		NewRoot(model.MustEntity("Product")).MustGet("nope")
	})
}
