package domain

import (
	"fmt"
	"strings"
)

// RRType represents a DNS resource record type code.
type RRType uint16

// Record types served with typed RDATA. Any other code may still be stored
// with opaque text data.
const (
	RRTypeA     RRType = 1  // A - IPv4 address
	RRTypeNS    RRType = 2  // NS - Name server
	RRTypeCNAME RRType = 5  // CNAME - Canonical name
	RRTypeMX    RRType = 15 // MX - Mail exchange
)

// IsSupported reports whether operators may create records of this type.
func (t RRType) IsSupported() bool {
	switch t {
	case RRTypeA, RRTypeNS, RRTypeCNAME, RRTypeMX:
		return true
	default:
		return false
	}
}

// String returns the mnemonic, or "TYPE<n>" for codes without one.
func (t RRType) String() string {
	switch t {
	case RRTypeA:
		return "A"
	case RRTypeNS:
		return "NS"
	case RRTypeCNAME:
		return "CNAME"
	case RRTypeMX:
		return "MX"
	default:
		return fmt.Sprintf("TYPE%d", uint16(t))
	}
}

// RRTypeFromString maps an operator-entered mnemonic (any case) to its code.
// Unknown mnemonics return 0.
func RRTypeFromString(s string) RRType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return RRTypeA
	case "NS":
		return RRTypeNS
	case "CNAME":
		return RRTypeCNAME
	case "MX":
		return RRTypeMX
	default:
		return 0
	}
}
