// ABOUTME: In-memory Backend for tests
// ABOUTME: Copies documents through JSON so callers never share memory with the store

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Backend. Load and Save copy the document the same
// way a disk round-trip would, so mutations after Save are not visible until the
// next Save.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	loads int
	saves int

	// LoadErr and SaveErr, when set, are returned by Load and Save.
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored document.
func (m *MemoryStore) Load(ctx context.Context) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		data, err := encodeDocument(NewDocument())
		if err != nil {
			return nil, err
		}
		m.data = data
	}
	return decodeDocument(m.data)
}

// Save stores a copy of doc.
func (m *MemoryStore) Save(ctx context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// Bytes returns the serialized document as it would appear on disk.
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Counts reports how many times Load and Save have been called.
func (m *MemoryStore) Counts() (loads, saves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.saves
}
