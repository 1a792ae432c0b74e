package wire

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// rdataCache memoizes encoded RDATA. The payload bytes of a record never
// depend on time, only the TTL field does, so cached bytes stay valid for as
// long as the presentation text is the same.
type rdataCache struct {
	lru *lru.Cache[string, []byte]
}

// newRDataCache returns nil when size <= 0, which disables caching.
func newRDataCache(size int) (*rdataCache, error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &rdataCache{lru: cache}, nil
}

func rdataKey(data domain.RData) string {
	return strconv.Itoa(int(data.Type())) + "|" + data.String()
}

// encode returns cached bytes or encodes and stores them. Callers copy the
// result into their own buffers and never modify it.
func (c *rdataCache) encode(data domain.RData) ([]byte, error) {
	if c == nil || data == nil {
		return EncodeRData(data)
	}
	key := rdataKey(data)
	if b, ok := c.lru.Get(key); ok {
		return b, nil
	}
	b, err := EncodeRData(data)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, b)
	return b, nil
}

// Len returns the number of cached payloads.
func (c *rdataCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
