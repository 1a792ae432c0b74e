package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// Snapshot is the persisted record set, keyed by owner name.
type Snapshot map[string][]SnapshotEntry

// SnapshotEntry is one persisted record. TTL is the original TTL and
// CreationTime the Unix time in fractional seconds at which the record was
// added, so the countdown continues across restarts.
type SnapshotEntry struct {
	Type         uint16       `json:"type"`
	Class        uint16       `json:"class"`
	TTL          uint32       `json:"ttl"`
	CreationTime *float64     `json:"creation_time,omitempty"`
	Data         SnapshotData `json:"data"`
}

// SnapshotData is either a plain string or, for MX, a [preference, exchange]
// pair.
type SnapshotData struct {
	Pair       bool
	Preference uint16
	Text       string
}

func (d SnapshotData) MarshalJSON() ([]byte, error) {
	if d.Pair {
		return json.Marshal([]any{d.Preference, d.Text})
	}
	return json.Marshal(d.Text)
}

func (d *SnapshotData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*d = SnapshotData{}
		return json.Unmarshal(b, &d.Text)
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("record data must be a string or [preference, exchange]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("record data pair has %d elements, want 2", len(pair))
	}
	var out SnapshotData
	if err := json.Unmarshal(pair[0], &out.Preference); err != nil {
		return fmt.Errorf("invalid preference: %w", err)
	}
	if err := json.Unmarshal(pair[1], &out.Text); err != nil {
		return fmt.Errorf("invalid exchange: %w", err)
	}
	out.Pair = true
	*d = out
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// entryFromRecord converts a stored record into its persisted form.
func entryFromRecord(rr domain.Record) SnapshotEntry {
	created := unixSeconds(rr.CreatedAt)
	entry := SnapshotEntry{
		Type:         uint16(rr.Type),
		Class:        uint16(rr.Class),
		TTL:          rr.TTL,
		CreationTime: &created,
	}
	if mx, ok := rr.Data.(domain.MXData); ok {
		entry.Data = SnapshotData{Pair: true, Preference: mx.Preference, Text: mx.Exchange}
	} else {
		entry.Data = SnapshotData{Text: rr.Data.String()}
	}
	return entry
}

// toRecord rebuilds a record for name. Entries without a creation time are
// treated as created at now.
func (e SnapshotEntry) toRecord(name string, now time.Time) (domain.Record, error) {
	rrtype := domain.RRType(e.Type)

	var data domain.RData
	switch {
	case e.Data.Pair && rrtype == domain.RRTypeMX:
		data = domain.MXData{Preference: e.Data.Preference, Exchange: e.Data.Text}
	case e.Data.Pair:
		return domain.Record{}, fmt.Errorf("%s record with pair data: %w", rrtype, domain.ErrMalformedData)
	default:
		var err error
		if data, err = domain.ParseRData(rrtype, e.Data.Text); err != nil {
			return domain.Record{}, err
		}
	}

	created := now
	if e.CreationTime != nil {
		created = fromUnixSeconds(*e.CreationTime)
	}
	rr, err := domain.NewRecord(name, e.TTL, data, created)
	if err != nil {
		return domain.Record{}, err
	}
	if e.Class != 0 {
		rr.Class = domain.RRClass(e.Class)
	}
	return rr, nil
}
