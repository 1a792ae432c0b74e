package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// RData is the typed payload of a record. Each supported record type has its
// own variant so encoders switch on the Go type instead of inspecting data.
type RData interface {
	// Type is the record type this payload belongs to.
	Type() RRType
	// String is the presentation form, as an operator would type it.
	String() string
}

// AData is an IPv4 address.
type AData struct {
	IP [4]byte
}

func (AData) Type() RRType { return RRTypeA }

func (d AData) String() string {
	return net.IP(d.IP[:]).String()
}

// NSData names an authoritative name server.
type NSData struct {
	Host string
}

func (NSData) Type() RRType     { return RRTypeNS }
func (d NSData) String() string { return d.Host }

// CNAMEData names the canonical target of an alias.
type CNAMEData struct {
	Target string
}

func (CNAMEData) Type() RRType     { return RRTypeCNAME }
func (d CNAMEData) String() string { return d.Target }

// MXData is a mail exchanger with its preference.
type MXData struct {
	Preference uint16
	Exchange   string
}

func (MXData) Type() RRType { return RRTypeMX }

func (d MXData) String() string {
	return fmt.Sprintf("%d %s", d.Preference, d.Exchange)
}

// OpaqueData carries text for record types without a typed variant. It is
// written to the wire as raw ASCII bytes.
type OpaqueData struct {
	Code RRType
	Text string
}

func (d OpaqueData) Type() RRType   { return d.Code }
func (d OpaqueData) String() string { return d.Text }

// ParseAData parses a dotted-quad IPv4 literal.
func ParseAData(text string) (AData, error) {
	text = strings.TrimSpace(text)
	ip := net.ParseIP(text)
	if ip == nil || ip.To4() == nil || strings.Contains(text, ":") {
		return AData{}, fmt.Errorf("invalid A record IP %q: %w", text, ErrMalformedData)
	}
	var d AData
	copy(d.IP[:], ip.To4())
	return d, nil
}

// ParseMXData parses "<preference> <exchange>". Fields after the exchange
// are ignored.
func ParseMXData(text string) (MXData, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return MXData{}, fmt.Errorf("MX record requires preference and exchange name, got %q: %w", text, ErrMalformedData)
	}
	pref, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return MXData{}, fmt.Errorf("MX preference must be a number between 0 and 65535, got %q: %w", parts[0], ErrMalformedData)
	}
	return MXData{Preference: uint16(pref), Exchange: parts[1]}, nil
}

// ParseRData builds the typed payload for t from its presentation text.
// Types without a variant produce OpaqueData.
func ParseRData(t RRType, text string) (RData, error) {
	switch t {
	case RRTypeA:
		return ParseAData(text)
	case RRTypeMX:
		return ParseMXData(text)
	case RRTypeNS, RRTypeCNAME:
		target := strings.TrimSpace(text)
		if target == "" || strings.ContainsAny(target, " \t") {
			return nil, fmt.Errorf("invalid %s target %q: %w", t, text, ErrMalformedData)
		}
		if t == RRTypeNS {
			return NSData{Host: target}, nil
		}
		return CNAMEData{Target: target}, nil
	default:
		if t == 0 {
			return nil, fmt.Errorf("record type 0: %w", ErrUnsupportedType)
		}
		return OpaqueData{Code: t, Text: text}, nil
	}
}
