package domain

import (
	"fmt"
	"time"

	"github.com/haukened/ttl-dns/internal/dns/common/utils"
)

// Record is a stored resource record. Its TTL counts down from CreatedAt; the
// original TTL and creation time are what get persisted, so the remaining TTL
// is always re-derived from the clock.
type Record struct {
	Name      string
	Type      RRType
	Class     RRClass
	TTL       uint32 // original TTL in seconds
	CreatedAt time.Time
	Data      RData
}

// NewRecord constructs an IN-class record created at now.
func NewRecord(name string, ttl uint32, data RData, now time.Time) (Record, error) {
	rr := Record{
		Name:      utils.CanonicalDNSName(name),
		Class:     RRClassIN,
		TTL:       ttl,
		CreatedAt: now,
		Data:      data,
	}
	if data != nil {
		rr.Type = data.Type()
	}
	if err := rr.Validate(); err != nil {
		return Record{}, err
	}
	return rr, nil
}

// Validate checks whether the Record fields are consistent.
func (rr Record) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if rr.Data == nil {
		return fmt.Errorf("record %s has no data: %w", rr.Name, ErrUnsupportedType)
	}
	if rr.Data.Type() != rr.Type {
		return fmt.Errorf("record %s: %s data on a %s record: %w", rr.Name, rr.Data.Type(), rr.Type, ErrMalformedData)
	}
	return nil
}

// ExpiresAt is CreatedAt plus the original TTL.
func (rr Record) ExpiresAt() time.Time {
	return rr.CreatedAt.Add(time.Duration(rr.TTL) * time.Second)
}

// RemainingTTL returns the whole seconds left before expiry, never negative.
func (rr Record) RemainingTTL(now time.Time) uint32 {
	left := rr.ExpiresAt().Sub(now)
	if left <= 0 {
		return 0
	}
	return uint32(left / time.Second)
}

// IsExpired reports whether no whole second of TTL remains. Expired records
// are never answered or persisted.
func (rr Record) IsExpired(now time.Time) bool {
	return rr.RemainingTTL(now) == 0
}
