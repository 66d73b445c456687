package domain

import "fmt"

// QueryType is the kind of lookup requested, carried in the code field of a request.
type QueryType uint16

const (
	QueryTypeAddress QueryType = 1  // domain name -> address
	QueryTypeReverse QueryType = 12 // address -> domain name
	QueryTypeText    QueryType = 16 // server metadata by key
)

// IsValid returns true if the QueryType is one of the supported lookups.
func (t QueryType) IsValid() bool {
	switch t {
	case QueryTypeAddress, QueryTypeReverse, QueryTypeText:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the QueryType.
// For unknown types, it returns "UNKNOWN(<value>)".
func (t QueryType) String() string {
	switch t {
	case QueryTypeAddress:
		return "A"
	case QueryTypeReverse:
		return "PTR"
	case QueryTypeText:
		return "TXT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(t))
	}
}
