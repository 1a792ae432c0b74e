package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/gateways/wire"
	"github.com/haukened/ttl-dns/internal/dns/services/resolver"
)

// Option configures a UDPTransport.
type Option func(*UDPTransport)

// WithMaxWorkers caps the number of queries handled at once. Datagrams that
// arrive while every worker is busy are dropped.
func WithMaxWorkers(n int) Option {
	return func(t *UDPTransport) {
		if n > 0 {
			t.maxWorkers = n
		}
	}
}

// WithClock sets the clock used to compute remaining TTLs in responses.
func WithClock(c clock.Clock) Option {
	return func(t *UDPTransport) {
		if c != nil {
			t.clock = c
		}
	}
}

// UDPTransport implements resolver.ServerTransport for standard DNS over UDP
// (RFC 1035). It handles socket management, packet reception and wire format
// conversion while delegating DNS logic to the service layer.
type UDPTransport struct {
	addr       string
	conn       *net.UDPConn
	codec      wire.DNSCodec
	logger     log.Logger
	clock      clock.Clock
	maxWorkers int
	sem        *semaphore.Weighted

	// Synchronization for graceful shutdown
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewUDPTransport creates a new UDP transport instance.
func NewUDPTransport(addr string, codec wire.DNSCodec, logger log.Logger, opts ...Option) *UDPTransport {
	t := &UDPTransport{
		addr:       addr,
		codec:      codec,
		logger:     logger,
		clock:      &clock.RealClock{},
		maxWorkers: DefaultMaxWorkers,
	}
	if t.logger == nil {
		t.logger = log.NewNoopLogger()
	}
	for _, opt := range opts {
		opt(t)
	}
	t.sem = semaphore.NewWeighted(int64(t.maxWorkers))
	return t
}

// Start binds the UDP socket and starts the packet loop. A bind failure is
// returned to the caller; nothing after that is.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
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
		"transport":   "udp",
		"address":     conn.LocalAddr().String(),
		"max_workers": t.maxWorkers,
	}, "DNS transport started")

	t.wg.Add(1)
	go t.listenLoop(ctx, handler)
	go t.stopOnDone(ctx, t.stopCh)

	return nil
}

// Stop closes the socket and waits for in-flight queries to finish.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		t.wg.Wait()
		return nil
	}
	t.running = false
	close(t.stopCh)

	closeErr := t.conn.Close()
	if closeErr != nil {
		t.logger.Warn(map[string]any{
			"error": closeErr.Error(),
		}, "Error closing UDP connection")
	}
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport stopped")

	return closeErr
}

// Address returns the bound address while running, otherwise the configured one.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.running && t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

func (t *UDPTransport) isRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// stopOnDone stops the transport when ctx is cancelled before Stop is called.
func (t *UDPTransport) stopOnDone(ctx context.Context, stopCh <-chan struct{}) {
	select {
	case <-ctx.Done():
		t.logger.Debug(nil, "UDP transport stopping due to context cancellation")
		_ = t.Stop()
	case <-stopCh:
	}
}

// listenLoop reads datagrams until the socket is closed. Each datagram is
// handled on its own goroutine, bounded by the worker semaphore.
func (t *UDPTransport) listenLoop(ctx context.Context, handler resolver.DNSResponder) {
	defer t.wg.Done()

	buffer := make([]byte, wire.MaxUDPMessageSize)
	for {
		n, clientAddr, err := t.conn.ReadFromUDP(buffer)
		if err != nil {
			if !t.isRunning() || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "Failed to read UDP packet")
			continue
		}

		if !t.sem.TryAcquire(1) {
			t.logger.Warn(map[string]any{
				"client":      clientAddr.String(),
				"max_workers": t.maxWorkers,
			}, "Dropping DNS query, all workers busy")
			continue
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])

		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.sem.Release(1)
			t.handlePacket(ctx, packet, clientAddr, handler)
		}()
	}
}

// handlePacket processes a single UDP DNS packet. Failures are logged and the
// packet is dropped.
func (t *UDPTransport) handlePacket(ctx context.Context, data []byte, clientAddr *net.UDPAddr, handler resolver.DNSResponder) {
	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(data),
		"raw":    fmt.Sprintf("%x", data),
	}, "Received raw DNS query data")

	query, err := t.codec.DecodeQuery(data)
	if err != nil {
		t.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
			"size":   len(data),
		}, "Failed to decode DNS query")
		return
	}

	t.logger.Debug(map[string]any{
		"client":   clientAddr.String(),
		"query_id": query.ID,
		"name":     query.Name,
		"type":     query.Type.String(),
	}, "Received DNS query")

	response, err := handler.HandleQuery(ctx, query, clientAddr)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.ID,
			"error":    err.Error(),
		}, "Failed to handle DNS query")
		return
	}

	responseData, err := t.codec.EncodeResponse(response, t.clock.Now())
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.ID,
			"error":    err.Error(),
		}, "Failed to encode DNS response")
		return
	}

	if _, err := t.conn.WriteToUDP(responseData, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.ID,
			"error":    err.Error(),
		}, "Failed to send DNS response")
		return
	}

	fields := map[string]any{
		"client":   clientAddr.String(),
		"query_id": response.ID,
		"size":     len(responseData),
	}
	if sent, err := wire.DecodeHeader(responseData); err == nil {
		fields["answers"] = sent.ANCount
		fields["rcode"] = sent.RCode().String()
		fields["truncated"] = sent.IsTruncated()
	}
	t.logger.Debug(fields, "Sent DNS response")
}

// Ensure UDPTransport implements resolver.ServerTransport at compile time
var _ resolver.ServerTransport = (*UDPTransport)(nil)
