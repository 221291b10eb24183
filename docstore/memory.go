package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/abhishekp4512/CattleNet/errors"
)

// Memory is an in-process Store for tests and single-node development.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]json.RawMessage)}
}

// Insert appends the document to the collection.
func (m *Memory) Insert(_ context.Context, collection string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.WrapInvalid(err, "Memory", "Insert", "marshal document")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], data)
	return nil
}

// Documents returns a copy of the collection's documents in insert order.
func (m *Memory) Documents(collection string) []json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.collections[collection]
	out := make([]json.RawMessage, len(docs))
	copy(out, docs)
	return out
}

// Count returns the number of documents in the collection.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
