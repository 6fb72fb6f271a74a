package infer

import (
	"sort"
	"sync"

	"github.com/teranos/stubgen/typegen/model"
)

// EnumTable collects enum descriptors seen during inference. The first
// recording of a key wins; later properties sharing the key are ignored.
type EnumTable struct {
	mu      sync.Mutex
	entries map[string]*model.EnumDescriptor
}

// NewEnumTable creates an empty table.
func NewEnumTable() *EnumTable {
	return &EnumTable{entries: make(map[string]*model.EnumDescriptor)}
}

// Record stores items under key unless the key is already present.
func (t *EnumTable) Record(key string, items []model.EnumItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; ok {
		return
	}
	copied := make([]model.EnumItem, len(items))
	copy(copied, items)
	t.entries[key] = &model.EnumDescriptor{Key: key, Items: copied}
}

// Get returns the descriptor for key.
func (t *EnumTable) Get(key string) (*model.EnumDescriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[key]
	return d, ok
}

// All returns every descriptor sorted by key.
func (t *EnumTable) All() []*model.EnumDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*model.EnumDescriptor, 0, len(t.entries))
	for _, d := range t.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
