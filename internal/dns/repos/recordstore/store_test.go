package recordstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/domain"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu       sync.Mutex
	saves    int
	last     Snapshot
	loadSnap Snapshot
	loadErr  error
	saveErr  error
	closed   bool
}

func (f *fakeBackend) Load() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadSnap, f.loadErr
}

func (f *fakeBackend) Save(snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.last = snap
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func newTestStore(c clock.Clock, backend Snapshotter) *Store {
	return New(Options{Clock: c, Logger: log.NewNoopLogger(), Backend: backend})
}

func aData(s string) domain.AData {
	a, err := domain.ParseAData(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestStore_AddAndLookup(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 3600, aData("192.0.2.1")))

	got := s.Lookup("example.com", domain.RRTypeA)
	require.Len(t, got, 1)
	assert.Equal(t, "example.com", got[0].Name)
	assert.Equal(t, domain.RRClassIN, got[0].Class)
	assert.Equal(t, uint32(3600), got[0].TTL)
	assert.Equal(t, t0, got[0].CreatedAt)
	assert.Equal(t, "192.0.2.1", got[0].Data.String())

	assert.Empty(t, s.Lookup("example.com", domain.RRTypeMX))
	assert.Empty(t, s.Lookup("missing.example.com", domain.RRTypeA))
}

func TestStore_TTLBoundary(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)
	require.NoError(t, s.Add("short.example.com", domain.RRTypeA, 60, aData("192.0.2.2")))

	c.Advance(59 * time.Second)
	got := s.Lookup("short.example.com", domain.RRTypeA)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(1), got[0].RemainingTTL(c.Now()))

	c.Advance(2 * time.Second)
	assert.Empty(t, s.Lookup("short.example.com", domain.RRTypeA))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Names())
}

func TestStore_ExpiresAtExactTTL(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)
	require.NoError(t, s.Add("edge.example.com", domain.RRTypeA, 30, aData("192.0.2.3")))

	c.Advance(30 * time.Second)
	assert.Empty(t, s.Lookup("edge.example.com", domain.RRTypeA))
}

func TestStore_ReplaceSameType(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)

	require.NoError(t, s.Add("www.example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	c.Advance(10 * time.Second)
	require.NoError(t, s.Add("www.example.com", domain.RRTypeA, 120, aData("192.0.2.9")))

	got := s.Lookup("www.example.com", domain.RRTypeA)
	require.Len(t, got, 1)
	assert.Equal(t, "192.0.2.9", got[0].Data.String())
	assert.Equal(t, uint32(120), got[0].TTL)
	assert.Equal(t, t0.Add(10*time.Second), got[0].CreatedAt)
	assert.Equal(t, 1, s.Len())
}

func TestStore_TypesCoexist(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	require.NoError(t, s.Add("example.com", domain.RRTypeMX, 60, domain.MXData{Preference: 10, Exchange: "mail.example.com"}))
	require.NoError(t, s.Add("example.com", domain.RRTypeNS, 60, domain.NSData{Host: "ns1.example.com"}))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"example.com"}, s.Names())

	mx := s.Lookup("example.com", domain.RRTypeMX)
	require.Len(t, mx, 1)
	assert.Equal(t, domain.MXData{Preference: 10, Exchange: "mail.example.com"}, mx[0].Data)
}

func TestStore_LookupPurgesOtherTypes(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 10, aData("192.0.2.1")))
	require.NoError(t, s.Add("example.com", domain.RRTypeMX, 100, domain.MXData{Preference: 5, Exchange: "mx.example.com"}))
	c.Advance(20 * time.Second)

	assert.Len(t, s.Lookup("example.com", domain.RRTypeMX), 1)
	assert.Equal(t, 1, s.Len())
}

func TestStore_NamesAreCaseInsensitive(t *testing.T) {
	c := clock.NewMockClock(t0)
	s := newTestStore(c, nil)

	require.NoError(t, s.Add("WWW.Example.COM.", domain.RRTypeCNAME, 60, domain.CNAMEData{Target: "example.com"}))

	got := s.Lookup("www.example.com", domain.RRTypeCNAME)
	require.Len(t, got, 1)
	assert.Equal(t, "www.example.com", got[0].Name)
	assert.Len(t, s.Lookup("www.EXAMPLE.com.", domain.RRTypeCNAME), 1)
}

func TestStore_AddRejectsInvalidInput(t *testing.T) {
	s := newTestStore(clock.NewMockClock(t0), nil)

	err := s.Add("example.com", domain.RRTypeMX, 60, aData("192.0.2.1"))
	assert.ErrorIs(t, err, domain.ErrMalformedData)

	err = s.Add("example.com", domain.RRTypeA, 60, nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	err = s.Add(" . ", domain.RRTypeA, 60, aData("192.0.2.1"))
	assert.Error(t, err)

	assert.Equal(t, 0, s.Len())
}

func TestStore_PersistsOnAddAndPurge(t *testing.T) {
	c := clock.NewMockClock(t0)
	backend := &fakeBackend{}
	s := newTestStore(c, backend)

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 10, aData("192.0.2.1")))
	assert.Equal(t, 1, backend.saveCount())
	require.Len(t, backend.last["example.com"], 1)

	s.Lookup("example.com", domain.RRTypeA)
	assert.Equal(t, 1, backend.saveCount(), "lookup without purge must not persist")

	c.Advance(11 * time.Second)
	assert.Empty(t, s.Lookup("example.com", domain.RRTypeA))
	assert.Equal(t, 2, backend.saveCount())
	assert.Empty(t, backend.last)
}

func TestStore_SnapshotSkipsExpired(t *testing.T) {
	c := clock.NewMockClock(t0)
	backend := &fakeBackend{}
	s := newTestStore(c, backend)

	require.NoError(t, s.Add("old.example.com", domain.RRTypeA, 5, aData("192.0.2.1")))
	c.Advance(10 * time.Second)
	require.NoError(t, s.Add("new.example.com", domain.RRTypeA, 60, aData("192.0.2.2")))

	assert.NotContains(t, backend.last, "old.example.com")
	assert.Contains(t, backend.last, "new.example.com")
	assert.Equal(t, 2, s.Len(), "unpurged records stay in memory until looked up")
}

func TestStore_PersistFailureDisablesPersistence(t *testing.T) {
	c := clock.NewMockClock(t0)
	backend := &fakeBackend{saveErr: errors.New("disk full")}
	s := newTestStore(c, backend)

	err := s.Persist()
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 1, backend.saveCount())

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	assert.NoError(t, s.Persist())
	assert.Equal(t, 1, backend.saveCount())

	assert.Len(t, s.Lookup("example.com", domain.RRTypeA), 1)
}

func TestStore_UnwritablePathKeepsServing(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := newTestStore(clock.NewMockClock(t0), NewJSONFile(filepath.Join(blocker, "records.json")))

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	assert.NoError(t, s.Persist(), "persistence is already disabled")
	assert.Len(t, s.Lookup("example.com", domain.RRTypeA), 1)
}

func TestStore_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "records.json")
	c := clock.NewMockClock(t0)
	s := newTestStore(c, NewJSONFile(path))

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 3600, aData("192.0.2.1")))
	require.NoError(t, s.Add("example.com", domain.RRTypeMX, 3600, domain.MXData{Preference: 10, Exchange: "mail.example.com"}))
	require.NoError(t, s.Add("www.example.com", domain.RRTypeCNAME, 300, domain.CNAMEData{Target: "example.com"}))
	require.NoError(t, s.Close())

	later := clock.NewMockClock(t0.Add(10 * time.Second))
	restored := newTestStore(later, NewJSONFile(path))
	assert.Equal(t, 3, restored.Hydrate())

	a := restored.Lookup("example.com", domain.RRTypeA)
	require.Len(t, a, 1)
	assert.Equal(t, t0, a[0].CreatedAt)
	assert.Equal(t, uint32(3590), a[0].RemainingTTL(later.Now()))

	mx := restored.Lookup("example.com", domain.RRTypeMX)
	require.Len(t, mx, 1)
	assert.Equal(t, domain.MXData{Preference: 10, Exchange: "mail.example.com"}, mx[0].Data)

	cname := restored.Lookup("www.example.com", domain.RRTypeCNAME)
	require.Len(t, cname, 1)
	assert.Equal(t, uint32(290), cname[0].RemainingTTL(later.Now()))
}

func TestStore_HydrateFiltersEntries(t *testing.T) {
	created := unixSeconds(t0)
	stale := unixSeconds(t0.Add(-time.Hour))
	backend := &fakeBackend{loadSnap: Snapshot{
		"live.example.com":  {{Type: 1, Class: 1, TTL: 60, CreationTime: &created, Data: SnapshotData{Text: "192.0.2.1"}}},
		"stale.example.com": {{Type: 1, Class: 1, TTL: 60, CreationTime: &stale, Data: SnapshotData{Text: "192.0.2.2"}}},
		"bad.example.com":   {{Type: 1, Class: 1, TTL: 60, CreationTime: &created, Data: SnapshotData{Text: "not-an-ip"}}},
		"pair.example.com":  {{Type: 1, Class: 1, TTL: 60, CreationTime: &created, Data: SnapshotData{Pair: true, Text: "x"}}},
		"Fresh.Example.com": {{Type: 15, Class: 1, TTL: 60, Data: SnapshotData{Pair: true, Preference: 5, Text: "mx.example.com"}}},
		"dup.example.com": {
			{Type: 2, Class: 1, TTL: 60, CreationTime: &created, Data: SnapshotData{Text: "ns1.example.com"}},
			{Type: 2, Class: 1, TTL: 60, CreationTime: &created, Data: SnapshotData{Text: "ns2.example.com"}},
		},
	}}
	c := clock.NewMockClock(t0.Add(5 * time.Second))
	s := newTestStore(c, backend)

	assert.Equal(t, 3, s.Hydrate())
	assert.Equal(t, []string{"dup.example.com", "fresh.example.com", "live.example.com"}, s.Names())

	fresh := s.Lookup("fresh.example.com", domain.RRTypeMX)
	require.Len(t, fresh, 1)
	assert.Equal(t, c.Now(), fresh[0].CreatedAt, "missing creation time falls back to now")

	dup := s.Lookup("dup.example.com", domain.RRTypeNS)
	require.Len(t, dup, 1)
	assert.Equal(t, "ns2.example.com", dup[0].Data.String())
}

func TestStore_HydrateMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()

	missing := newTestStore(clock.NewMockClock(t0), NewJSONFile(filepath.Join(dir, "absent.json")))
	assert.Equal(t, 0, missing.Hydrate())
	assert.Equal(t, 0, missing.Len())

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	broken := newTestStore(clock.NewMockClock(t0), NewJSONFile(path))
	assert.Equal(t, 0, broken.Hydrate())
	require.NoError(t, broken.Add("example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	assert.Len(t, broken.Lookup("example.com", domain.RRTypeA), 1)
}

func TestStore_HydrateWithoutBackend(t *testing.T) {
	s := newTestStore(clock.NewMockClock(t0), nil)
	assert.Equal(t, 0, s.Hydrate())
	assert.NoError(t, s.Persist())
	assert.NoError(t, s.Close())
}

func TestStore_CloseStopsWrites(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestStore(clock.NewMockClock(t0), backend)

	require.NoError(t, s.Close())
	assert.True(t, backend.closed)

	require.NoError(t, s.Add("example.com", domain.RRTypeA, 60, aData("192.0.2.1")))
	assert.Equal(t, 0, backend.saveCount())
	assert.Len(t, s.Lookup("example.com", domain.RRTypeA), 1)
}

func TestStore_Concurrency(t *testing.T) {
	c := clock.NewMockClock(t0)
	backend := &fakeBackend{}
	s := newTestStore(c, backend)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				name := fmt.Sprintf("host%d.example.com", i%10)
				ip := aData(fmt.Sprintf("192.0.2.%d", w+1))
				assert.NoError(t, s.Add(name, domain.RRTypeA, uint32(1+i%5), ip))
				s.Lookup(name, domain.RRTypeA)
				if i%10 == 0 {
					c.Advance(time.Second)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 10)
	assert.Positive(t, backend.saveCount())
}
