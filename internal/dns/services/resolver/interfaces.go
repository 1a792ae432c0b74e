package resolver

import (
	"context"
	"net"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// Store is the TTL-governed record set the resolver answers from.
type Store interface {
	Add(name string, t domain.RRType, ttl uint32, data domain.RData) error
	Lookup(name string, t domain.RRType) []domain.Record
}

type DNSResponder interface {
	// HandleQuery answers a decoded question. The transport handles all
	// network protocol details; the handler only sees domain objects.
	HandleQuery(ctx context.Context, q domain.Question, clientAddr net.Addr) (domain.DNSResponse, error)
}

// ServerTransport defines the interface for DNS server transport implementations.
type ServerTransport interface {
	// Start begins listening for requests and handling them via the provided handler.
	// A bind failure is returned; per-query failures never are.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop gracefully shuts down the transport, waiting for in-flight queries.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
