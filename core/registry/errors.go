package registry

import "errors"

// Sentinel errors for registry and value operations. All are contract
// violations: none are retried or recovered at this layer.
var (
	// ErrUnknownType indicates a type reference named neither a built-in,
	// a generic parameter, nor a registered template at resolution time.
	ErrUnknownType = errors.New("unknown type")

	// ErrArityMismatch indicates a type argument count that does not match
	// the template's declared parameter count.
	ErrArityMismatch = errors.New("type argument arity mismatch")

	// ErrDuplicateType indicates registration of a serial name that is
	// already bound to a different template.
	ErrDuplicateType = errors.New("type already registered")

	// ErrMalformedWire indicates wire data whose shape does not match the
	// concrete type during decoding: a required field absent, or a value of
	// the wrong shape.
	ErrMalformedWire = errors.New("malformed wire data")

	// ErrValueShape indicates construction of a struct value whose length or
	// per-position values do not conform to the concrete type.
	ErrValueShape = errors.New("value shape mismatch")
)
