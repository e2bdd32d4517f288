package semantictokens

import (
	"fmt"
	"sync"
	"sync/atomic"

	"bennypowers.dev/xmlls/lsp/types"
)

// TokenCache keeps the last semantic tokens result sent for each document,
// so delta requests can diff against it. It implements types.SemanticTokenCacher.
type TokenCache struct {
	mu         sync.RWMutex
	byResultID map[string]*types.SemanticTokenCacheEntry
	resultIDs  map[string]string // uri -> resultID
	uris       map[string]string // resultID -> uri
	counter    atomic.Uint64
}

var _ types.SemanticTokenCacher = (*TokenCache)(nil)

// NewTokenCache creates a new TokenCache
func NewTokenCache() *TokenCache {
	return &TokenCache{
		byResultID: make(map[string]*types.SemanticTokenCacheEntry),
		resultIDs:  make(map[string]string),
		uris:       make(map[string]string),
	}
}

// Store records data as the current result for uri and returns its new
// result id. The previous result for uri is dropped.
func (c *TokenCache) Store(uri string, data []uint32, version int) string {
	resultID := fmt.Sprintf("st-%d", c.counter.Add(1))
	entry := &types.SemanticTokenCacheEntry{
		ResultID: resultID,
		Data:     append([]uint32(nil), data...),
		Version:  version,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked(uri)
	c.byResultID[resultID] = entry
	c.resultIDs[uri] = resultID
	c.uris[resultID] = uri
	return resultID
}

// Get returns the entry with the given result id, or nil
func (c *TokenCache) Get(resultID string) *types.SemanticTokenCacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byResultID[resultID]
}

// GetForURI returns the entry with the given result id if it is the current
// result of uri. Result ids sent for other documents never match.
func (c *TokenCache) GetForURI(resultID, uri string) *types.SemanticTokenCacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.uris[resultID] != uri {
		return nil
	}
	return c.byResultID[resultID]
}

// Invalidate removes the entry of uri
func (c *TokenCache) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked(uri)
}

func (c *TokenCache) dropLocked(uri string) {
	if id, ok := c.resultIDs[uri]; ok {
		delete(c.byResultID, id)
		delete(c.uris, id)
		delete(c.resultIDs, uri)
	}
}
