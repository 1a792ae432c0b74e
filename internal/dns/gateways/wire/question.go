package wire

import (
	"encoding/binary"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// EncodeQuestion encodes the question section: name, type, class.
// Inbound questions are read by DecodeQuery itself: DecodeName, then the
// type and class as two raw uint16s.
func EncodeQuestion(q domain.Question) ([]byte, error) {
	name, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(name), len(name)+4)
	copy(buf, name)
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(q.Class))
	return buf, nil
}
