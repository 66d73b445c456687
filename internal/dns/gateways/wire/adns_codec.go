package wire

import (
	"fmt"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
)

// adnsCodec implements the Codec interface for adns messages.
type adnsCodec struct {
	logger log.Logger
}

// NewCodec creates and returns a new Codec using the provided logger.
// The logger is used for debug tracing of encoded and decoded messages.
func NewCodec(logger log.Logger) *adnsCodec {
	return &adnsCodec{
		logger: logger,
	}
}

// EncodeQuery serializes a Query into a request message.
// Values longer than MaxBodyLen are rejected with ErrBodyTooLong.
func (c *adnsCodec) EncodeQuery(query domain.Query) ([]byte, error) {
	data, err := Encode(query.ID, uint16(query.Type), query.Value)
	if err != nil {
		return nil, err
	}

	c.logger.Debug(map[string]any{
		"id":       fmt.Sprintf("0x%08x", query.ID),
		"type":     uint16(query.Type),
		"body_len": len(query.Value),
		"body":     query.Value,
	}, "Encoded request")

	return data, nil
}

// DecodeQuery interprets a request body according to its header.
// The query type is passed through unchecked; only the text encoding is validated.
func (c *adnsCodec) DecodeQuery(h Header, body []byte) (domain.Query, error) {
	value, err := DecodeText(body)
	if err != nil {
		return domain.Query{}, err
	}

	c.logger.Debug(map[string]any{
		"id":       fmt.Sprintf("0x%08x", h.ID),
		"type":     h.Code,
		"body_len": h.BodyLen,
		"body":     value,
	}, "Decoded request")

	return domain.Query{
		ID:    h.ID,
		Type:  domain.QueryType(h.Code),
		Value: value,
	}, nil
}

// EncodeResponse serializes a Response into a reply message.
// Payloads come from the zone or fixed strings, so an oversized payload is a
// programming error and panics.
func (c *adnsCodec) EncodeResponse(resp domain.Response) []byte {
	data := MustEncode(resp.ID, uint16(resp.RCode), resp.Payload)

	c.logger.Debug(map[string]any{
		"id":       fmt.Sprintf("0x%08x", resp.ID),
		"type":     uint16(resp.RCode),
		"body_len": len(resp.Payload),
		"body":     resp.Payload,
		"raw":      fmt.Sprintf("%x", data),
	}, "Encoded response")

	return data
}

// DecodeResponse interprets a reply body according to its header.
// Unknown result codes are preserved so the caller can report them.
func (c *adnsCodec) DecodeResponse(h Header, body []byte) (domain.Response, error) {
	payload, err := DecodeText(body)
	if err != nil {
		return domain.Response{}, err
	}

	c.logger.Debug(map[string]any{
		"id":       fmt.Sprintf("0x%08x", h.ID),
		"type":     h.Code,
		"body_len": h.BodyLen,
		"body":     payload,
	}, "Decoded response")

	return domain.Response{
		ID:      h.ID,
		RCode:   domain.RCode(h.Code),
		Payload: payload,
	}, nil
}

var _ Codec = &adnsCodec{}
