package resolver

// ZoneStore is the read-only view of the zone the resolver answers from.
// Implementations must be safe for concurrent use.
type ZoneStore interface {
	// Lookup returns the address recorded for name.
	Lookup(name string) (string, bool)
	// ReverseLookup returns the first name, in zone order, recorded with addr.
	ReverseLookup(addr string) (string, bool)
}
