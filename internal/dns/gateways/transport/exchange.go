package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

// exchanger turns one framed request into its reply bytes. It is shared by
// the TCP and UDP transports, which differ only in how frames arrive.
type exchanger struct {
	transport TransportType
	codec     wire.Codec
	logger    log.Logger
}

// formatError builds a FORMERR reply for request id without consulting the handler.
func (x exchanger) formatError(id uint32, clientAddr net.Addr, cause error) []byte {
	x.logger.Warn(map[string]any{
		"transport": string(x.transport),
		"client":    clientAddr.String(),
		"id":        fmt.Sprintf("0x%08x", id),
		"error":     cause.Error(),
	}, "Malformed request")
	return x.codec.EncodeResponse(domain.NewErrorResponse(id, domain.FORMERR))
}

// answer decodes body, asks handler for a response and encodes it. A nil
// result means nothing should be sent: the handler failed, or its response
// carries a code the server never emits or a payload on an error code.
func (x exchanger) answer(ctx context.Context, h wire.Header, body []byte, clientAddr net.Addr, handler RequestHandler) []byte {
	query, err := x.codec.DecodeQuery(h, body)
	if err != nil {
		return x.formatError(h.ID, clientAddr, err)
	}

	x.logger.Debug(map[string]any{
		"transport": string(x.transport),
		"client":    clientAddr.String(),
		"id":        fmt.Sprintf("0x%08x", query.ID),
		"type":      query.Type.String(),
		"query":     query.Value,
	}, "Received query")

	response, err := handler.HandleQuery(ctx, query, clientAddr)
	if err != nil {
		x.logger.Error(map[string]any{
			"transport": string(x.transport),
			"client":    clientAddr.String(),
			"id":        fmt.Sprintf("0x%08x", query.ID),
			"error":     err.Error(),
		}, "Failed to handle query")
		return nil
	}
	if err := response.Validate(); err != nil {
		x.logger.Error(map[string]any{
			"transport": string(x.transport),
			"client":    clientAddr.String(),
			"id":        fmt.Sprintf("0x%08x", query.ID),
			"error":     err.Error(),
		}, "Dropping invalid response")
		return nil
	}

	return x.codec.EncodeResponse(response)
}
