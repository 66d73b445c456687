package transport

import (
	"fmt"
	"slices"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

// NewTransport creates a transport of the given type bound to addr.
func NewTransport(transportType TransportType, addr string, codec wire.Codec, logger log.Logger, opts Options) (ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, codec, logger), nil

	case TransportTCP:
		return NewTCPTransport(addr, codec, logger, opts), nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns a list of currently supported transport types.
func GetSupportedTransports() []TransportType {
	return []TransportType{
		TransportUDP,
		TransportTCP,
	}
}

// IsTransportSupported checks if a given transport type is currently supported.
func IsTransportSupported(transportType TransportType) bool {
	return slices.Contains(GetSupportedTransports(), transportType)
}
