// Package path builds typed navigation paths from a query root through entity attributes.
//
// A Node is immutable. Roots are created with NewRoot; every other node comes from
// resolving an attribute name against its parent, which fails with an
// UnknownAttributeError (ErrInvalidArgument) or an IllegalDereferenceError
// (ErrIllegalState).
package path

import (
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Node is one step of a navigation path
type Node struct {
	bound     *schema.EntityType
	depth     int
	parent    *Node
	attribute *schema.Attribute
}

// NewRoot creates the depth-zero node of a query over entity
func NewRoot(entity *schema.EntityType) *Node {
	return &Node{bound: entity}
}

// BoundType returns the type reached by the node. Terminal nodes are bound to no type.
func (n *Node) BoundType() *schema.EntityType { return n.bound }

// Depth returns the number of attributes between the root and this node
func (n *Node) Depth() int { return n.depth }

// Parent returns the previous node, nil for a root
func (n *Node) Parent() *Node { return n.parent }

// Attribute returns the attribute that produced the node, nil for a root
func (n *Node) Attribute() *schema.Attribute { return n.attribute }

// IsRoot reports whether the node is a query root
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsTerminal reports whether the node ends at a basic attribute
func (n *Node) IsTerminal() bool {
	return n.attribute != nil && n.attribute.Kind == schema.KindBasic
}

// Source returns the type the node's attribute was resolved against, nil for a root
func (n *Node) Source() *schema.EntityType {
	if n.parent == nil {
		return nil
	}
	return n.parent.bound
}

// Root walks back to the depth-zero node
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Get resolves an attribute of the node's bound type
func (n *Node) Get(name string) (*Node, error) {
	return Resolve(n, name)
}

// MustGet resolves an attribute and panics on failure
func (n *Node) MustGet(name string) *Node {
	child, err := Resolve(n, name)
	if err != nil {
		panic(err)
	}
	return child
}

// GetPath resolves a dotted attribute path such as "customer.address.city"
func (n *Node) GetPath(dotted string) (*Node, error) {
	return ResolvePath(n, dotted)
}

// Segments returns the attribute names from the root down to n
func (n *Node) Segments() []string {
	segments := make([]string, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		segments[cur.depth-1] = cur.attribute.Name
	}
	return segments
}

// String renders the path as Entity.attr.attr
func (n *Node) String() string {
	root := n.Root()
	parts := append([]string{root.bound.String()}, n.Segments()...)
	return strings.Join(parts, ".")
}

// Equal reports whether two nodes describe the same path
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n == other {
		return true
	}
	if n.depth != other.depth || n.bound != other.bound || n.attribute != other.attribute {
		return false
	}
	if n.parent == nil || other.parent == nil {
		return n.parent == other.parent
	}
	return n.parent.Equal(other.parent)
}
