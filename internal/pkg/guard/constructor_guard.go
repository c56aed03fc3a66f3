// Package guard provides a defensive construction marker for domain objects.
//
// Embedding a ConstructorGuard in a struct makes it possible to detect
// whether the value was produced by its designated constructor or is a raw
// zero value. Domain aggregates and value objects in this codebase validate
// the guard before any operation, so a zero-value entity always fails fast
// instead of silently carrying invalid state.
package guard

import "errors"

// ErrNotConstructed is returned by Validate when no specific error is
// supplied for an unconstructed object.
var ErrNotConstructed = errors.New("object must be created via its constructor")

// ConstructorGuard marks a struct as having passed through its constructor.
// The zero value is "not constructed" and fails Validate.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard in the constructed state. Call it only
// from a constructor function.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil when the owning object was properly constructed.
// For a zero-value guard it returns notConstructedErr, or ErrNotConstructed
// when notConstructedErr is nil.
func (g ConstructorGuard) Validate(notConstructedErr error) error {
	if g.isConstructed {
		return nil
	}
	if notConstructedErr == nil {
		return ErrNotConstructed
	}
	return notConstructedErr
}
