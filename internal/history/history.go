// Package history holds the conversation context exchanged with the
// execution engine. The engine owns how history evolves; this store only
// keeps the latest sequence it returned.
package history

import (
	"encoding/json"
	"sync"
)

// Item is one opaque unit of conversation context.
type Item = json.RawMessage

// Store holds exactly one history sequence per session.
type Store struct {
	mu    sync.RWMutex
	items []Item
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current sequence for use as engine input.
func (s *Store) Get() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Replace swaps the stored sequence for items. There is no merging.
func (s *Store) Replace(items []Item) {
	c := cloneItems(items)
	s.mu.Lock()
	s.items = c
	s.mu.Unlock()
}

// Len returns the number of items in the current sequence.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = append(Item(nil), it...)
	}
	return out
}
