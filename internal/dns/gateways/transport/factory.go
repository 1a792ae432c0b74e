package transport

import (
	"fmt"

	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/gateways/wire"
	"github.com/haukened/ttl-dns/internal/dns/services/resolver"
)

// NewTransport creates a transport of the given type bound to addr.
func NewTransport(transportType TransportType, addr string, codec wire.DNSCodec, logger log.Logger, opts ...Option) (resolver.ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, codec, logger, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}
