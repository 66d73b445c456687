package wire

import (
	"github.com/haukened/adns/internal/dns/domain"
)

// Codec converts between domain objects and framed adns messages.
// Framing itself (how many bytes make up one message) is handled by ReadFrame and
// ParseDatagram; a Codec only sees a decoded Header and its body.
type Codec interface {
	// Client side
	// These methods build requests and interpret the server's replies.
	EncodeQuery(query domain.Query) ([]byte, error)
	DecodeResponse(h Header, body []byte) (domain.Response, error)

	// Server side
	// These methods interpret requests and build replies.
	DecodeQuery(h Header, body []byte) (domain.Query, error)
	EncodeResponse(resp domain.Response) []byte
}
