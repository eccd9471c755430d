package parser

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedResult struct {
	result FileResult
	err    error
}

// ResultCache memoizes extraction by content hash. Successive snapshots of
// the same corpus share most files byte for byte, so a multi-snapshot run
// parses each distinct file once. A nil cache is valid and never hits.
type ResultCache struct {
	entries *lru.Cache[[sha256.Size]byte, cachedResult]
}

func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[[sha256.Size]byte, cachedResult](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries}, nil
}

func (c *ResultCache) Get(content []byte) (cachedResult, bool) {
	if c == nil {
		return cachedResult{}, false
	}
	return c.entries.Get(sha256.Sum256(content))
}

func (c *ResultCache) Add(content []byte, value cachedResult) {
	if c == nil {
		return
	}
	c.entries.Add(sha256.Sum256(content), value)
}

// Len returns the number of cached files.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
