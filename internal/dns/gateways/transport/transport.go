// Package transport serves adns over the network. It owns sockets and framing,
// converting wire messages to domain objects before handing them to the
// service layer and converting the answers back.
package transport

import (
	"context"
	"net"

	"github.com/haukened/adns/internal/dns/domain"
)

// ServerTransport is a network listener that feeds requests to a RequestHandler.
type ServerTransport interface {
	// Start binds the listener and begins serving in the background.
	Start(ctx context.Context, handler RequestHandler) error

	// Stop closes the listener. It is safe to call more than once.
	Stop() error

	// Address returns the bound address while running, and the configured one otherwise.
	Address() string
}

// RequestHandler answers decoded queries. The transport never calls it for
// requests that fail framing or decoding; those get a FORMERR reply directly.
type RequestHandler interface {
	HandleQuery(ctx context.Context, query domain.Query, clientAddr net.Addr) (domain.Response, error)
}

// TransportType names a supported network protocol.
type TransportType string

const (
	// TransportUDP serves one request per datagram.
	TransportUDP TransportType = "udp"

	// TransportTCP serves one request per connection.
	TransportTCP TransportType = "tcp"
)

// Options tune transport behaviour. The zero value is valid.
type Options struct {
	// MaxConns caps concurrent TCP connections. Zero means unlimited.
	MaxConns int
}
