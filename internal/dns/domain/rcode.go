package domain

import "fmt"

// RCode is the result code carried in the code field of a response.
type RCode uint16

const (
	NOERROR  RCode = 0 // query answered
	FORMERR  RCode = 1 // request could not be interpreted
	NXDOMAIN RCode = 3 // no matching entry in the zone
)

// IsValid returns true if the RCode is one the server can emit.
func (r RCode) IsValid() bool {
	switch r {
	case NOERROR, FORMERR, NXDOMAIN:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	switch r {
	case NOERROR:
		return "NOERROR"
	case FORMERR:
		return "FORMERR"
	case NXDOMAIN:
		return "NXDOMAIN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(r))
	}
}
