// Package wire provides encoding and decoding of DNS messages for UDP transport.
// It handles the DNS wire format as specified in RFC 1035.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// udpCodec implements DNSCodec for standard DNS over UDP messages.
type udpCodec struct {
	logger log.Logger
	rdata  *rdataCache
}

// NewUDPCodec creates a codec. rdataCacheSize bounds the LRU of encoded
// RDATA payloads; zero or less disables it.
func NewUDPCodec(logger log.Logger, rdataCacheSize int) (*udpCodec, error) {
	cache, err := newRDataCache(rdataCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create rdata cache: %w", err)
	}
	return &udpCodec{
		logger: logger,
		rdata:  cache,
	}, nil
}

// DecodeQuery parses a DNS query message from data. Only the header and the
// single question are read; any other sections are ignored.
func (c *udpCodec) DecodeQuery(data []byte) (domain.Question, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return domain.Question{}, err
	}
	if header.IsResponse() {
		return domain.Question{}, fmt.Errorf("message is a response, not a query: %w", domain.ErrMalformedQuery)
	}
	if header.Opcode() != 0 {
		return domain.Question{}, fmt.Errorf("unsupported opcode %d: %w", header.Opcode(), domain.ErrMalformedQuery)
	}
	if header.QDCount != 1 {
		return domain.Question{}, fmt.Errorf("expected exactly one question, got %d: %w", header.QDCount, domain.ErrMalformedQuery)
	}

	name, offset, err := DecodeName(data, domain.HeaderLen)
	if err != nil {
		return domain.Question{}, err
	}
	if offset+4 > len(data) {
		return domain.Question{}, fmt.Errorf("question truncated after name: %w", domain.ErrMalformedQuery)
	}
	qtype := binary.BigEndian.Uint16(data[offset : offset+2])
	qclass := binary.BigEndian.Uint16(data[offset+2 : offset+4])

	return domain.Question{
		ID:    header.ID,
		Name:  name,
		Type:  domain.RRType(qtype),
		Class: domain.RRClass(qclass),
	}, nil
}

// EncodeResponse serializes resp. Answers are encoded first so that ANCOUNT
// counts only what was written: expired records contribute nothing, records
// that fail to encode are logged and skipped, and answers that would push the
// message past MaxUDPMessageSize are dropped with TC set.
func (c *udpCodec) EncodeResponse(resp domain.DNSResponse, now time.Time) ([]byte, error) {
	question, err := EncodeQuestion(resp.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	var answers bytes.Buffer
	size := domain.HeaderLen + len(question)
	count := 0
	truncated := false
	for _, rr := range resp.Answers {
		packed, err := encodeRecord(rr, now, c.rdata.encode)
		if err != nil {
			c.logger.Warn(map[string]any{
				"name":  rr.Name,
				"type":  rr.Type.String(),
				"error": err.Error(),
			}, "Skipping answer that failed to encode")
			continue
		}
		if len(packed) == 0 {
			continue
		}
		if size+len(packed) > MaxUDPMessageSize {
			truncated = true
			break
		}
		answers.Write(packed)
		size += len(packed)
		count++

		c.logger.Debug(map[string]any{
			"step": "answer_written",
			"name": rr.Name,
			"type": rr.Type.String(),
			"ttl":  rr.RemainingTTL(now),
			"size": len(packed),
		}, "Wrote answer record")
	}

	header := domain.Header{
		ID:      resp.ID,
		Flags:   domain.FlagsResponse,
		QDCount: 1,
		ANCount: uint16(count),
	}
	if truncated {
		header = header.WithTruncated()
	}

	var buf bytes.Buffer
	buf.Grow(size)
	buf.Write(EncodeHeader(header))
	buf.Write(question)
	buf.Write(answers.Bytes())

	c.logger.Debug(map[string]any{
		"step":      "final_packet",
		"id":        resp.ID,
		"an":        count,
		"truncated": truncated,
		"size":      buf.Len(),
	}, "Encoded DNS response")

	return buf.Bytes(), nil
}

var _ DNSCodec = &udpCodec{}
