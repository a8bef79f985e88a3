package path

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/criteria/internal/orm/schema"
)

// Error classes for path construction failures
var (
	// ErrInvalidArgument classifies requests naming something that does not exist
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState classifies requests that are individually valid but illegal in sequence
	ErrIllegalState = errors.New("illegal state")
)

// UnknownAttributeError is returned when a name is not an attribute of the bound type
type UnknownAttributeError struct {
	OnType *schema.EntityType
	Name   string
}

// Error implements the error interface
func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unable to locate attribute %q on %s", e.Name, e.OnType)
}

// Unwrap classifies the error as ErrInvalidArgument
func (e *UnknownAttributeError) Unwrap() error {
	return ErrInvalidArgument
}

// IllegalDereferenceError is returned when navigation continues past a basic attribute
type IllegalDereferenceError struct {
	// OnType declares the basic attribute
	OnType *schema.EntityType
	// Attribute is the basic attribute that ends the path
	Attribute     string
	AttemptedName string
}

// Error implements the error interface
func (e *IllegalDereferenceError) Error() string {
	return fmt.Sprintf("illegal attempt to dereference %q through basic attribute %s.%s",
		e.AttemptedName, e.OnType, e.Attribute)
}

// Unwrap classifies the error as ErrIllegalState
func (e *IllegalDereferenceError) Unwrap() error {
	return ErrIllegalState
}

// IsUnknownAttribute returns true if err is or wraps an UnknownAttributeError
func IsUnknownAttribute(err error) bool {
	var target *UnknownAttributeError
	return errors.As(err, &target)
}

// IsIllegalDereference returns true if err is or wraps an IllegalDereferenceError
func IsIllegalDereference(err error) bool {
	var target *IllegalDereferenceError
	return errors.As(err, &target)
}
