// Package zone holds the static domain to address mapping served by adns and
// the loaders that build it from text, YAML, JSON, TOML and bolt files.
package zone

import (
	"fmt"

	"github.com/haukened/adns/internal/dns/common/log"
)

// Entry is one name to address mapping.
type Entry struct {
	Name    string
	Address string
}

// Zone is an immutable mapping of domain names to addresses. It remembers the
// order in which names were first seen so reverse lookups are deterministic.
// A Zone is safe for concurrent use once built.
type Zone struct {
	names  []string
	addrs  map[string]string
	filter *filter
}

// New builds a Zone from entries in order. A repeated name keeps the position
// of its first occurrence and takes the address of its last.
func New(entries []Entry) *Zone {
	z := &Zone{
		names:  make([]string, 0, len(entries)),
		addrs:  make(map[string]string, len(entries)),
		filter: newFilter(uint64(len(entries)), defaultFalsePositiveRate),
	}
	for _, e := range entries {
		if _, seen := z.addrs[e.Name]; !seen {
			z.names = append(z.names, e.Name)
			z.filter.Add([]byte(e.Name))
		}
		z.addrs[e.Name] = e.Address
	}
	return z
}

// Lookup returns the address for name.
func (z *Zone) Lookup(name string) (string, bool) {
	if !z.filter.MightContain([]byte(name)) {
		return "", false
	}
	addr, ok := z.addrs[name]
	return addr, ok
}

// ReverseLookup returns the first name, in zone order, whose address is addr.
func (z *Zone) ReverseLookup(addr string) (string, bool) {
	for _, name := range z.names {
		if z.addrs[name] == addr {
			return name, true
		}
	}
	return "", false
}

// Len returns the number of distinct names.
func (z *Zone) Len() int {
	return len(z.names)
}

// Entries returns a copy of the zone contents in zone order.
func (z *Zone) Entries() []Entry {
	out := make([]Entry, 0, len(z.names))
	for _, name := range z.names {
		out = append(out, Entry{Name: name, Address: z.addrs[name]})
	}
	return out
}

// Dump writes every entry to the logger at debug level.
func (z *Zone) Dump(logger log.Logger) {
	for i, e := range z.Entries() {
		logger.Debug(map[string]any{
			"index":   i,
			"name":    e.Name,
			"address": e.Address,
		}, fmt.Sprintf("zone entry %d", i))
	}
}
