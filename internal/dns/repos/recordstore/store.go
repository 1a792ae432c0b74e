package recordstore

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/common/utils"
	"github.com/haukened/ttl-dns/internal/dns/domain"
	"github.com/haukened/ttl-dns/internal/dns/services/resolver"
)

// Options configures a Store. A nil Backend keeps the store in memory only.
type Options struct {
	Clock   clock.Clock
	Logger  log.Logger
	Backend Snapshotter
}

// Store is the TTL-governed record set. It holds at most one record per
// (name, type); expired records are purged lazily on lookup.
type Store struct {
	mu      sync.Mutex
	records map[string][]domain.Record
	//      canonical name → records, one per type

	clock   clock.Clock
	logger  log.Logger
	backend Snapshotter

	writeMu  sync.Mutex
	disabled atomic.Bool
}

// New creates an empty Store.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	s := &Store{
		records: make(map[string][]domain.Record),
		clock:   opts.Clock,
		logger:  opts.Logger,
		backend: opts.Backend,
	}
	if s.backend == nil {
		s.disabled.Store(true)
	}
	return s
}

// Add stores a record created now, replacing any existing record of the same
// name and type, then persists the store.
func (s *Store) Add(name string, t domain.RRType, ttl uint32, data domain.RData) error {
	rr, err := domain.NewRecord(name, ttl, data, s.clock.Now())
	if err != nil {
		return err
	}
	if rr.Type != t {
		return fmt.Errorf("record %s: %s data for a %s record: %w", rr.Name, rr.Type, t, domain.ErrMalformedData)
	}

	s.mu.Lock()
	existing := s.records[rr.Name]
	replaced := false
	for i := range existing {
		if existing[i].Type == rr.Type {
			existing[i] = rr
			replaced = true
			break
		}
	}
	if !replaced {
		s.records[rr.Name] = append(existing, rr)
	}
	s.mu.Unlock()

	s.logger.Debug(map[string]any{
		"name":     rr.Name,
		"type":     rr.Type.String(),
		"ttl":      rr.TTL,
		"replaced": replaced,
	}, "Record stored")

	_ = s.Persist()
	return nil
}

// Lookup returns the unexpired records of type t for name. Expired records
// for name of any type are removed first; if that removed anything the store
// is persisted.
func (s *Store) Lookup(name string, t domain.RRType) []domain.Record {
	key := utils.CanonicalDNSName(name)
	now := s.clock.Now()

	s.mu.Lock()
	stored, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	var (
		valid   = make([]domain.Record, 0, len(stored))
		matches []domain.Record
		purged  int
	)
	for _, rr := range stored {
		if rr.IsExpired(now) {
			purged++
			continue
		}
		valid = append(valid, rr)
		if rr.Type == t {
			matches = append(matches, rr)
		}
	}
	if purged > 0 {
		if len(valid) == 0 {
			delete(s.records, key)
		} else {
			s.records[key] = valid
		}
	}
	s.mu.Unlock()

	if purged > 0 {
		s.logger.Debug(map[string]any{"name": key, "purged": purged}, "Expired records removed")
		_ = s.Persist()
	}
	return matches
}

// Persist writes every unexpired record to the backend. The first failure is
// logged and disables persistence for the rest of the store's life; the
// in-memory records are unaffected.
func (s *Store) Persist() error {
	if s.disabled.Load() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.disabled.Load() {
		return nil
	}

	snap := s.snapshot()
	if err := s.backend.Save(snap); err != nil {
		s.disabled.Store(true)
		s.logger.Error(map[string]any{"error": err.Error()}, "Failed to persist records, persistence disabled")
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// snapshot copies the unexpired records under the store lock.
func (s *Store) snapshot() Snapshot {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(Snapshot, len(s.records))
	for name, records := range s.records {
		entries := make([]SnapshotEntry, 0, len(records))
		for _, rr := range records {
			if rr.IsExpired(now) {
				continue
			}
			entries = append(entries, entryFromRecord(rr))
		}
		if len(entries) > 0 {
			snap[name] = entries
		}
	}
	return snap
}

// Hydrate replaces the in-memory records with the backend's snapshot and
// returns how many were restored. A missing or unreadable snapshot leaves the
// store empty. Entries that are expired or cannot be parsed are skipped.
func (s *Store) Hydrate() int {
	if s.backend == nil {
		return 0
	}

	snap, err := s.backend.Load()
	if err != nil {
		s.logger.Warn(map[string]any{"error": err.Error()}, "Ignoring unreadable record snapshot")
		snap = nil
	}

	now := s.clock.Now()
	records := make(map[string][]domain.Record, len(snap))
	restored := 0
	for name, entries := range snap {
		for _, entry := range entries {
			rr, err := entry.toRecord(name, now)
			if err != nil {
				s.logger.Warn(map[string]any{
					"name":  name,
					"type":  domain.RRType(entry.Type).String(),
					"error": err.Error(),
				}, "Skipping unparseable persisted record")
				continue
			}
			if rr.IsExpired(now) {
				continue
			}
			if !replaceOrAppend(records, rr) {
				restored++
			}
		}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.logger.Info(map[string]any{"records": restored}, "Record store hydrated")
	return restored
}

// replaceOrAppend reports whether rr replaced an existing entry.
func replaceOrAppend(records map[string][]domain.Record, rr domain.Record) bool {
	existing := records[rr.Name]
	for i := range existing {
		if existing[i].Type == rr.Type {
			existing[i] = rr
			return true
		}
	}
	records[rr.Name] = append(existing, rr)
	return false
}

// Close stops persistence and releases the backend.
func (s *Store) Close() error {
	s.disabled.Store(true)
	if s.backend == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.backend.Close()
}

// Len returns the number of records held, including expired records that
// have not been purged yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, records := range s.records {
		n += len(records)
	}
	return n
}

// Names returns the stored owner names in sorted order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ensure Store implements resolver.Store at compile time
var _ resolver.Store = (*Store)(nil)
