package domain

import "errors"

// Error kinds shared by the codec, the record store and the operator surfaces.
// Wrap them with fmt.Errorf("context: %w", ErrX) and classify with errors.Is.
var (
	// ErrEncoding means a value cannot be represented on the wire,
	// e.g. a label longer than 63 bytes.
	ErrEncoding = errors.New("dns encoding error")

	// ErrMalformedData means record data text does not fit its type,
	// e.g. an A record that is not an IPv4 literal.
	ErrMalformedData = errors.New("malformed record data")

	// ErrMalformedQuery means an inbound message could not be decoded.
	ErrMalformedQuery = errors.New("malformed dns query")

	// ErrUnsupportedType means no RDATA encoding exists for a record.
	ErrUnsupportedType = errors.New("unsupported record type")

	// ErrPersistence means the record snapshot could not be written.
	ErrPersistence = errors.New("record persistence error")
)
