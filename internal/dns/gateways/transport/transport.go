// Package transport carries DNS messages between the network and the
// resolver. It converts wire format to domain objects so the service layer
// only ever sees domain types.
package transport

// TransportType names a DNS transport protocol.
type TransportType string

const (
	// TransportUDP is classic DNS over UDP (RFC 1035).
	TransportUDP TransportType = "udp"
)

// DefaultMaxWorkers bounds concurrent query handling when no limit is set.
const DefaultMaxWorkers = 256
