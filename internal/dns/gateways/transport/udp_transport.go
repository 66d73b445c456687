package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

// udpReadBufferSize exceeds wire.MaxMessageSize so oversized datagrams are
// seen, and rejected, rather than silently cut to a valid length.
const udpReadBufferSize = 512

// UDPTransport implements ServerTransport over UDP. Every datagram is an
// independent request, handled on its own goroutine.
type UDPTransport struct {
	addr     string
	conn     *net.UDPConn
	exchange exchanger
	logger   log.Logger

	// Synchronization for graceful shutdown
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// NewUDPTransport creates a new UDP transport instance.
func NewUDPTransport(addr string, codec wire.Codec, logger log.Logger) *UDPTransport {
	return &UDPTransport{
		addr:     addr,
		exchange: exchanger{transport: TransportUDP, codec: codec, logger: logger},
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start binds the UDP socket and starts the packet handling loop.
func (t *UDPTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP transport already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	t.conn = conn
	t.running = true
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   conn.LocalAddr().String(),
	}, "Transport started")

	go t.listenLoop(ctx, handler, t.stopCh)

	return nil
}

// Stop closes the UDP socket. In-flight datagram handlers may still finish.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	close(t.stopCh)

	var closeErr error
	if t.conn != nil {
		closeErr = t.conn.Close()
		if closeErr != nil {
			t.logger.Warn(map[string]any{
				"error": closeErr.Error(),
			}, "Error closing UDP connection")
		}
	}

	t.running = false

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.conn.LocalAddr().String(),
	}, "Transport stopped")

	return closeErr
}

// Address returns the network address the transport is bound to.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.running && t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

func (t *UDPTransport) listenLoop(ctx context.Context, handler RequestHandler, stopCh <-chan struct{}) {
	buffer := make([]byte, udpReadBufferSize)

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "UDP transport stopping due to context cancellation")
			return
		case <-stopCh:
			t.logger.Debug(nil, "UDP transport stopping due to stop signal")
			return
		default:
			n, clientAddr, err := t.conn.ReadFromUDP(buffer)
			if err != nil {
				t.mu.RLock()
				running := t.running
				t.mu.RUnlock()

				if !running {
					return
				}

				t.logger.Warn(map[string]any{
					"error": err.Error(),
				}, "Failed to read UDP packet")
				continue
			}

			packet := make([]byte, n)
			copy(packet, buffer[:n])
			go t.handlePacket(ctx, packet, clientAddr, handler)
		}
	}
}

// handlePacket answers a single datagram. Datagrams too short to carry a
// header are dropped; every other framing problem gets a FORMERR reply.
func (t *UDPTransport) handlePacket(ctx context.Context, data []byte, clientAddr *net.UDPAddr, handler RequestHandler) {
	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(data),
		"raw":    fmt.Sprintf("%x", data),
	}, "Received datagram")

	var reply []byte
	h, body, err := wire.ParseDatagram(data)
	switch {
	case errors.Is(err, wire.ErrShortHeader):
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"size":   len(data),
			"error":  err.Error(),
		}, "Dropping short datagram")
		return
	case err != nil:
		reply = t.exchange.formatError(h.ID, clientAddr, err)
	default:
		reply = t.exchange.answer(ctx, h, body, clientAddr, handler)
	}
	if reply == nil {
		return
	}

	if _, err := t.conn.WriteToUDP(reply, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client": clientAddr.String(),
			"id":     fmt.Sprintf("0x%08x", h.ID),
			"error":  err.Error(),
		}, "Failed to send response")
		return
	}

	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"id":     fmt.Sprintf("0x%08x", h.ID),
		"size":   len(reply),
	}, "Sent response")
}
