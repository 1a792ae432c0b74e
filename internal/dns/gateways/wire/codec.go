package wire

import (
	"time"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// MaxUDPMessageSize is the classic RFC 1035 datagram limit; EDNS0 is not
// supported, so it is also the largest response we send.
const MaxUDPMessageSize = 512

// DNSCodec converts between datagrams and domain values for the transport.
type DNSCodec interface {
	// DecodeQuery parses an inbound single-question query.
	DecodeQuery(data []byte) (domain.Question, error)
	// EncodeResponse serializes a response, computing remaining TTLs at now.
	EncodeResponse(resp domain.DNSResponse, now time.Time) ([]byte, error)
}
