// Package domain defines the query and response values exchanged by adns
// clients and servers, independent of how they are encoded on the wire.
package domain

// Query is a decoded request: the caller-chosen id, the lookup kind and the value to look up.
// Type is not restricted to supported values here; the resolver answers unknown types with FORMERR.
type Query struct {
	ID    uint32
	Type  QueryType
	Value string
}
