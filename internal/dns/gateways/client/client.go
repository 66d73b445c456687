// Package client issues adns queries to a server over TCP or UDP.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

// Error message constants for consistent error handling
const (
	errAddressRequired   = "server address is required"
	errCodecRequired     = "codec is required"
	errUnsupportedNet    = "unsupported network %q (want tcp or udp)"
	errFailedToConnect   = "failed to connect: %w"
	errEncodeFailed      = "encode failed: %w"
	errWriteFailed       = "write failed: %w"
	errReadFailed        = "read failed: %w"
	errDecodeFailed      = "decode failed: %w"
	errMalformedResponse = "malformed response: %w"
)

const (
	NetworkTCP = "tcp"
	NetworkUDP = "udp"
)

// StatusFailure is the status reported when no usable response was received.
const StatusFailure = 1

// DialFunc establishes a network connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures a Client.
type Options struct {
	// required parameters
	Network string
	Address string
	Codec   wire.Codec
	// optional
	Logger log.Logger
	// options to inject for testing purposes
	Dial  DialFunc
	NewID func() uint32
}

// Client sends one query per call and waits for exactly one reply. It does
// not retry, and it only times out if the caller's context has a deadline.
type Client struct {
	network string
	address string
	codec   wire.Codec
	logger  log.Logger
	dial    DialFunc
	newID   func() uint32
}

// New creates a Client from opts.
func New(opts Options) (*Client, error) {
	if opts.Network != NetworkTCP && opts.Network != NetworkUDP {
		return nil, fmt.Errorf(errUnsupportedNet, opts.Network)
	}
	if opts.Address == "" {
		return nil, errors.New(errAddressRequired)
	}
	if opts.Codec == nil {
		return nil, errors.New(errCodecRequired)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.NewID == nil {
		opts.NewID = rand.Uint32
	}
	return &Client{
		network: opts.Network,
		address: opts.Address,
		codec:   opts.Codec,
		logger:  opts.Logger,
		dial:    opts.Dial,
		newID:   opts.NewID,
	}, nil
}

// Lookup sends a query and returns the decoded reply. The reply id is not
// compared with the request id. Unknown result codes are returned as-is.
func (c *Client) Lookup(ctx context.Context, qtype domain.QueryType, value string) (domain.Response, error) {
	query := domain.Query{ID: c.newID(), Type: qtype, Value: value}
	req, err := c.codec.EncodeQuery(query)
	if err != nil {
		return domain.Response{}, fmt.Errorf(errEncodeFailed, err)
	}

	conn, err := c.dial(ctx, c.network, c.address)
	if err != nil {
		return domain.Response{}, fmt.Errorf(errFailedToConnect, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(req); err != nil {
		return domain.Response{}, fmt.Errorf(errWriteFailed, err)
	}

	var (
		h    wire.Header
		body []byte
	)
	if c.network == NetworkTCP {
		h, body, err = readStream(conn)
	} else {
		h, body, err = readDatagram(conn)
	}
	if err != nil {
		return domain.Response{}, err
	}

	resp, err := c.codec.DecodeResponse(h, body)
	if err != nil {
		return domain.Response{}, fmt.Errorf(errDecodeFailed, err)
	}
	return resp, nil
}

// readStream reads one reply frame from a stream connection.
func readStream(conn net.Conn) (wire.Header, []byte, error) {
	h, body, err := wire.ReadReply(conn)
	if err != nil {
		return wire.Header{}, nil, fmt.Errorf(errReadFailed, err)
	}
	return h, body, nil
}

// readDatagram reads one reply datagram. The buffer holds exactly one
// maximal message, so a longer datagram shows up as an oversized body.
func readDatagram(conn net.Conn) (wire.Header, []byte, error) {
	buf := make([]byte, wire.MaxMessageSize)
	n, err := conn.Read(buf)
	if err != nil {
		return wire.Header{}, nil, fmt.Errorf(errReadFailed, err)
	}
	h, body, err := wire.ParseReplyDatagram(buf[:n])
	if err != nil {
		return wire.Header{}, nil, fmt.Errorf(errMalformedResponse, err)
	}
	return h, body, nil
}

// Request performs Lookup and renders the outcome. The status is the result
// code of the reply, or StatusFailure when no reply could be read, in which
// case the output is empty and the cause is logged.
func (c *Client) Request(ctx context.Context, qtype domain.QueryType, value string) (int, string) {
	resp, err := c.Lookup(ctx, qtype, value)
	if err != nil {
		c.logger.Warn(map[string]any{
			"network": c.network,
			"server":  c.address,
			"error":   err.Error(),
		}, "Lookup failed")
		return StatusFailure, ""
	}
	if resp.IsError() {
		c.logger.Debug(map[string]any{
			"network": c.network,
			"server":  c.address,
			"id":      fmt.Sprintf("0x%08x", resp.ID),
			"code":    uint16(resp.RCode),
		}, "Server returned an error code")
	}
	return int(resp.RCode), Render(resp)
}

// Render returns the text shown to a user for resp.
func Render(resp domain.Response) string {
	switch resp.RCode {
	case domain.NOERROR:
		return resp.Payload
	case domain.FORMERR:
		return "malformed request"
	case domain.NXDOMAIN:
		return "not found"
	default:
		return fmt.Sprintf("unknown response type: %d", uint16(resp.RCode))
	}
}
