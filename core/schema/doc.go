/*
Package schema defines the unresolved data model for runtime struct types.

A template is a struct shape defined at runtime, without any compile-time
type for it. Templates reference other types purely by name, so a template
may reference itself, templates registered later, and its own generic
parameters. Turning a template into a usable concrete type is the registry's
job (core/registry); this package only describes shapes.

# Template Definition

A minimal template definition in YAML:

	type: Node

	fields:
	  id:    { type: Uuid }
	  label: { type: String, optional: true }
	  child: { type: "Node?" }

Field declaration order assigns positional indexes. A file may hold several
templates as separate YAML documents.

# Type Expressions

Field types are written as type expressions:

  - String, Bool, Int, Long, Float, Double, Bytes, Uuid, Timestamp
  - List<T> for ordered collections
  - Map<K, V> for string-keyed mappings
  - A trailing "?" marks the reference nullable, e.g. "Node?"
  - Any other name references a template or a generic parameter

# Generic Templates

Templates may declare type parameters:

	type: Pair
	params: [A, B]

	fields:
	  first:  { type: A }
	  second: { type: B }

A generic template is instantiated by resolving it with concrete type
arguments; each distinct argument tuple yields a distinct concrete type.
*/
package schema
