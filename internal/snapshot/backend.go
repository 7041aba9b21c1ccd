package snapshot

import (
	"bytes"
	"sort"
	"sync"
)

// Backend is the key/value contract the Store is built on.
//
// Get reports found=false for a missing key. SetMany writes all entries or
// none. Delete of a missing key is not an error. DropPrefix removes every key
// starting with prefix. Keys returns matching keys in ascending order.
type Backend interface {
	Get(key []byte) (value []byte, found bool, err error)
	Set(key, value []byte) error
	SetMany(entries ...Entry) error
	Delete(key []byte) error
	DropPrefix(prefix []byte) error
	Keys(prefix []byte) ([][]byte, error)
	Close() error
}

// Entry is a key/value pair for Backend.SetMany.
type Entry struct {
	Key   []byte
	Value []byte
}

// MemoryBackend is a map-backed Backend. Contents are lost on Close.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Get implements Backend.
func (m *MemoryBackend) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

// SetMany implements Backend.
func (m *MemoryBackend) SetMany(entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[string(e.Key)] = bytes.Clone(e.Value)
	}
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// DropPrefix implements Backend.
func (m *MemoryBackend) DropPrefix(prefix []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// Keys implements Backend.
func (m *MemoryBackend) Keys(prefix []byte) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}
