package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/gateways/wire"
)

// drainTimeout bounds how long a rejected request body is read and discarded
// before the connection is closed.
const drainTimeout = 1 * time.Second

// TCPTransport implements ServerTransport over TCP. Each accepted connection
// carries exactly one request and at most one reply, then is closed.
// Reads have no deadline.
type TCPTransport struct {
	addr     string
	maxConns int
	listener net.Listener
	exchange exchanger
	logger   log.Logger

	// Synchronization for graceful shutdown
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}

	connMu   sync.Mutex
	conns    map[net.Conn]struct{}
	draining bool
	wg       sync.WaitGroup
}

// NewTCPTransport creates a new TCP transport instance.
func NewTCPTransport(addr string, codec wire.Codec, logger log.Logger, opts Options) *TCPTransport {
	return &TCPTransport{
		addr:     addr,
		maxConns: opts.MaxConns,
		exchange: exchanger{transport: TransportTCP, codec: codec, logger: logger},
		logger:   logger,
		stopCh:   make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start binds the TCP listener and starts accepting connections.
func (t *TCPTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP transport already running")
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve TCP address %s: %w", t.addr, err)
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", t.addr, err)
	}

	var listener net.Listener = ln
	if t.maxConns > 0 {
		listener = netutil.LimitListener(ln, t.maxConns)
	}

	t.listener = listener
	t.running = true
	t.connMu.Lock()
	t.draining = false
	t.connMu.Unlock()
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   ln.Addr().String(),
		"max_conns": t.maxConns,
	}, "Transport started")

	go t.acceptLoop(ctx, handler, t.stopCh)

	return nil
}

// Stop closes the listener and any open connections, then waits for their
// handlers to return.
func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}

	close(t.stopCh)

	closeErr := t.listener.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr.Error(),
		}, "Error closing TCP listener")
	}
	t.running = false
	t.mu.Unlock()

	t.connMu.Lock()
	t.draining = true
	for conn := range t.conns {
		_ = conn.Close()
	}
	t.connMu.Unlock()
	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.listener.Addr().String(),
	}, "Transport stopped")

	return closeErr
}

// Address returns the network address the transport is bound to.
func (t *TCPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.running && t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

func (t *TCPTransport) acceptLoop(ctx context.Context, handler RequestHandler, stopCh <-chan struct{}) {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to accept TCP connection")
			continue
		}

		select {
		case <-ctx.Done():
			_ = conn.Close()
			t.logger.Debug(nil, "TCP transport stopping due to context cancellation")
			return
		default:
		}

		if !t.track(conn) {
			return
		}
		go func() {
			defer t.untrack(conn)
			t.handleConn(ctx, conn, handler)
		}()
	}
}

// track registers conn so Stop can close it. It refuses, and closes conn,
// once Stop has started draining.
func (t *TCPTransport) track(conn net.Conn) bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	if t.draining {
		_ = conn.Close()
		return false
	}
	t.conns[conn] = struct{}{}
	t.wg.Add(1)
	return true
}

func (t *TCPTransport) untrack(conn net.Conn) {
	_ = conn.Close()
	t.connMu.Lock()
	delete(t.conns, conn)
	t.connMu.Unlock()
	t.wg.Done()
}

// handleConn serves one request. A connection that ends before a full
// header or body arrives is abandoned without a reply. A header declaring
// an empty or oversized body is answered with FORMERR and the body is never read.
func (t *TCPTransport) handleConn(ctx context.Context, conn net.Conn, handler RequestHandler) {
	clientAddr := conn.RemoteAddr()

	var (
		reply    []byte
		rejected bool
	)
	h, body, err := wire.ReadFrame(conn)
	switch {
	case errors.Is(err, wire.ErrEmptyBody), errors.Is(err, wire.ErrBodyTooLong):
		reply = t.exchange.formatError(h.ID, clientAddr, err)
		rejected = true
	case err != nil:
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
		}, "Abandoning TCP connection")
		return
	default:
		reply = t.exchange.answer(ctx, h, body, clientAddr, handler)
	}
	if reply == nil {
		return
	}

	if _, err := conn.Write(reply); err != nil {
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

	if rejected {
		drainUnread(conn, int64(h.BodyLen))
	}
}

// drainUnread half-closes conn and discards up to n body bytes the client may
// still be sending. Closing a socket with unread input resets the connection,
// which can discard the reply before the client reads it.
func drainUnread(conn net.Conn, n int64) {
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(conn, n))
}
