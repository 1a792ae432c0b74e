package domain

// HeaderLen is the fixed size of a DNS message header on the wire.
const HeaderLen = 12

// FlagsResponse is the flag word on every response this server sends:
// QR, RD and RA set, opcode QUERY, RCODE NOERROR. Unmatched queries get the
// same flags with zero answers rather than NXDOMAIN.
const FlagsResponse uint16 = 0x8180

// Header flag bits (RFC 1035 §4.1.1).
const (
	flagQR uint16 = 1 << 15
	flagTC uint16 = 1 << 9
)

// Header is the 12-byte DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports the QR bit.
func (h Header) IsResponse() bool { return h.Flags&flagQR != 0 }

// Opcode returns the 4-bit operation code.
func (h Header) Opcode() uint8 { return uint8(h.Flags>>11) & 0x0F }

func (h Header) IsTruncated() bool { return h.Flags&flagTC != 0 }

func (h Header) RCode() RCode { return RCode(h.Flags & 0x0F) }

// WithTruncated returns a copy of h with the TC bit set.
func (h Header) WithTruncated() Header {
	h.Flags |= flagTC
	return h
}
