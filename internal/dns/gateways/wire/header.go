package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// EncodeHeader writes the six header fields as big-endian uint16s.
func EncodeHeader(h domain.Header) []byte {
	buf := make([]byte, domain.HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.ID)
	binary.BigEndian.PutUint16(buf[2:4], h.Flags)
	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)
	return buf
}

// DecodeHeader reads the first 12 bytes of msg. Anything after them is left
// for the caller, whose cursor continues at offset 12.
func DecodeHeader(msg []byte) (domain.Header, error) {
	if len(msg) < domain.HeaderLen {
		return domain.Header{}, fmt.Errorf("message of %d bytes is shorter than a header: %w", len(msg), domain.ErrMalformedQuery)
	}
	return domain.Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}
