package wire

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

const (
	maxLabelLen = 63
	maxNameLen  = 255 // wire octets, including length bytes and the root label

	pointerMask = 0xC0
)

// EncodeName encodes a dotted name as uncompressed length-prefixed labels
// ending in the zero-length root label. Empty segments are dropped, so a
// trailing dot is tolerated and "" encodes as the root.
func EncodeName(name string) ([]byte, error) {
	var buf bytes.Buffer
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 {
			continue
		}
		if len(label) > maxLabelLen {
			return nil, fmt.Errorf("label too long (%d bytes): %s: %w", len(label), label, domain.ErrEncoding)
		}
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)
	if buf.Len() > maxNameLen {
		return nil, fmt.Errorf("name too long (%d octets): %s: %w", buf.Len(), name, domain.ErrEncoding)
	}
	return buf.Bytes(), nil
}

// DecodeName decodes the name starting at offset in msg, expanding
// compression pointers (RFC 1035 §4.1.4). It returns the dotted name without
// a trailing dot and the offset just past the bytes the name occupies at
// offset; a pointer consumes exactly two bytes there and ends the name.
//
// A pointer must refer to an offset strictly below its own position, which
// bounds the recursion and rejects self or forward loops.
func DecodeName(msg []byte, offset int) (string, int, error) {
	var labels []string
	wireLen := 0
	for {
		if offset >= len(msg) {
			return "", 0, fmt.Errorf("name at offset %d runs past end of message: %w", offset, domain.ErrMalformedQuery)
		}
		length := int(msg[offset])

		switch length & pointerMask {
		case pointerMask:
			if offset+1 >= len(msg) {
				return "", 0, fmt.Errorf("compression pointer at offset %d truncated: %w", offset, domain.ErrMalformedQuery)
			}
			target := (length&^pointerMask)<<8 | int(msg[offset+1])
			if target >= offset {
				return "", 0, fmt.Errorf("compression pointer at offset %d points forward to %d: %w", offset, target, domain.ErrMalformedQuery)
			}
			suffix, _, err := DecodeName(msg, target)
			if err != nil {
				return "", 0, err
			}
			if suffix != "" {
				labels = append(labels, suffix)
			}
			return joinLabels(labels, wireLen+len(suffix)+2, offset+2)
		case 0:
			// plain label
		default:
			return "", 0, fmt.Errorf("unsupported label type %#02x at offset %d: %w", length&pointerMask, offset, domain.ErrMalformedQuery)
		}

		offset++
		if length == 0 {
			return joinLabels(labels, wireLen+1, offset)
		}
		if offset+length > len(msg) {
			return "", 0, fmt.Errorf("label at offset %d overruns message: %w", offset-1, domain.ErrMalformedQuery)
		}
		labels = append(labels, string(msg[offset:offset+length]))
		wireLen += length + 1
		offset += length
	}
}

func joinLabels(labels []string, wireLen, next int) (string, int, error) {
	if wireLen > maxNameLen {
		return "", 0, fmt.Errorf("decoded name exceeds %d octets: %w", maxNameLen, domain.ErrMalformedQuery)
	}
	return strings.Join(labels, "."), next, nil
}
