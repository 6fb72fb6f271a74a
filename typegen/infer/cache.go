package infer

import (
	"sort"
	"sync"

	"github.com/teranos/stubgen/typegen/model"
)

// Cache memoizes TypeRefs by text key so each distinct phrase maps to one
// instance per run. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]model.TypeRef
	// synthesized tracks keys created from unrecognized text
	synthesized map[string]bool
}

// NewCache returns a cache seeded with the documentation phrase table.
func NewCache() *Cache {
	c := &Cache{
		entries:     make(map[string]model.TypeRef, len(phraseTable)),
		synthesized: make(map[string]bool),
	}
	for phrase, t := range phraseTable {
		c.entries[phrase] = t
	}
	return c
}

// Lookup returns the cached TypeRef for key.
func (c *Cache) Lookup(key string) (model.TypeRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[key]
	return t, ok
}

// LoadOrStore returns the cached TypeRef for key, or stores the one built by
// create. loaded reports whether the entry already existed.
func (c *Cache) LoadOrStore(key string, create func() model.TypeRef) (t model.TypeRef, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.entries[key]; ok {
		return t, true
	}
	t = create()
	c.entries[key] = t
	return t, false
}

func (c *Cache) markSynthesized(key string) {
	c.mu.Lock()
	c.synthesized[key] = true
	c.mu.Unlock()
}

// Unrecognized returns the phrases that fell through to Named synthesis, sorted.
func (c *Cache) Unrecognized() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.synthesized))
	for k := range c.synthesized {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
