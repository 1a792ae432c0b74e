package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// rdataEncoder turns a typed payload into RDATA bytes.
type rdataEncoder func(domain.RData) ([]byte, error)

// EncodeRecord encodes rr with its remaining TTL at now. An expired record
// encodes to an empty slice and a nil error; callers must skip it and leave
// it out of ANCOUNT.
func EncodeRecord(rr domain.Record, now time.Time) ([]byte, error) {
	return encodeRecord(rr, now, EncodeRData)
}

func encodeRecord(rr domain.Record, now time.Time, rdata rdataEncoder) ([]byte, error) {
	remaining := rr.RemainingTTL(now)
	if remaining == 0 {
		return []byte{}, nil
	}

	name, err := EncodeName(rr.Name)
	if err != nil {
		return nil, fmt.Errorf("record %s name: %w", rr.Name, err)
	}
	data, err := rdata(rr.Data)
	if err != nil {
		return nil, fmt.Errorf("record %s %s data: %w", rr.Name, rr.Type, err)
	}
	if len(data) > math.MaxUint16 {
		return nil, fmt.Errorf("record %s data too large: %d bytes: %w", rr.Name, len(data), domain.ErrEncoding)
	}

	buf := make([]byte, 0, len(name)+10+len(data))
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Class))
	buf = binary.BigEndian.AppendUint32(buf, remaining)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(data)))
	buf = append(buf, data...)
	return buf, nil
}

// EncodeRData encodes a typed payload:
//   - A: the four address octets
//   - MX: uint16 preference then the exchange name
//   - NS, CNAME: the target name
//   - opaque: the raw text bytes
func EncodeRData(data domain.RData) ([]byte, error) {
	switch d := data.(type) {
	case domain.AData:
		return []byte{d.IP[0], d.IP[1], d.IP[2], d.IP[3]}, nil
	case domain.MXData:
		exchange, err := EncodeName(d.Exchange)
		if err != nil {
			return nil, fmt.Errorf("MX exchange: %w", err)
		}
		return append(binary.BigEndian.AppendUint16(nil, d.Preference), exchange...), nil
	case domain.NSData:
		return EncodeName(d.Host)
	case domain.CNAMEData:
		return EncodeName(d.Target)
	case domain.OpaqueData:
		return []byte(d.Text), nil
	default:
		return nil, fmt.Errorf("no RDATA encoding for %T: %w", data, domain.ErrUnsupportedType)
	}
}
