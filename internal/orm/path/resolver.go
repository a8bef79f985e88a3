package path

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Resolver resolves attribute names through a Metamodel
type Resolver struct {
	metamodel schema.Metamodel
}

// NewResolver creates a resolver reading attributes from metamodel
func NewResolver(metamodel schema.Metamodel) *Resolver {
	return &Resolver{metamodel: metamodel}
}

var defaultResolver = &Resolver{metamodel: schema.Linked}

// Resolve returns the child of parent reached through the named attribute
func Resolve(parent *Node, name string) (*Node, error) {
	return defaultResolver.Resolve(parent, name)
}

// ResolvePath resolves a dotted attribute path from parent
func ResolvePath(parent *Node, dotted string) (*Node, error) {
	return defaultResolver.ResolvePath(parent, dotted)
}

// Resolve returns the child of parent reached through the named attribute.
//
// A parent ending at a basic attribute cannot be navigated whatever name is asked for,
// so that check runs before the lookup.
func (r *Resolver) Resolve(parent *Node, name string) (*Node, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: cannot resolve %q against a nil path", ErrInvalidArgument, name)
	}

	if parent.IsTerminal() {
		return nil, &IllegalDereferenceError{
			OnType:        parent.Source(),
			Attribute:     parent.attribute.Name,
			AttemptedName: name,
		}
	}

	if parent.bound == nil {
		return nil, &UnknownAttributeError{OnType: nil, Name: name}
	}

	attr, ok := r.metamodel.AttributesOf(parent.bound)[name]
	if !ok {
		return nil, &UnknownAttributeError{OnType: parent.bound, Name: name}
	}

	return &Node{
		bound:     attr.Target,
		depth:     parent.depth + 1,
		parent:    parent,
		attribute: attr,
	}, nil
}

// ResolvePath resolves each segment of a dotted path in turn and stops at the first
// failure. The returned error keeps the class of the failing segment.
func (r *Resolver) ResolvePath(parent *Node, dotted string) (*Node, error) {
	current := parent
	segments := strings.Split(dotted, ".")

	for i, segment := range segments {
		next, err := r.Resolve(current, segment)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			return nil, fmt.Errorf("resolving %s: %w", strings.Join(segments[:i+1], "."), err)
		}
		current = next
	}

	return current, nil
}
