package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/kiln/internal/ir"
)

// Store holds the snapshots of every rep for the current pass.
//
// Thread-safety: all methods are safe for concurrent use, though the
// compiler mutates the store from its single control loop.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// NewMemory creates a Store over a fresh MemoryBackend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

func snapshotKey(rep ir.RepKey, name string) []byte {
	return append(snapshotPrefix(rep), name...)
}

func snapshotPrefix(rep ir.RepKey) []byte {
	return []byte("s/" + rep.String() + "\x00")
}

func orderKey(rep ir.RepKey) []byte {
	return []byte("o/" + rep.String())
}

func compiledKey(rep ir.RepKey) []byte {
	return []byte("c/" + rep.String())
}

// Put stores content under (rep, name).
//
// Returns *ir.DuplicateSnapshotError when the name was already written for
// rep in this pass. Existing content is never overwritten.
func (s *Store) Put(rep ir.RepKey, name string, content ir.Content) error {
	if name == "" {
		return fmt.Errorf("snapshot name for %s is empty", rep)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey(rep, name)
	_, found, err := s.backend.Get(key)
	if err != nil {
		return err
	}
	if found {
		return &ir.DuplicateSnapshotError{Rep: rep, Snapshot: name, StepIndex: -1}
	}

	encoded, err := encodeContent(content)
	if err != nil {
		return fmt.Errorf("encode snapshot %s/%s: %w", rep, name, err)
	}

	order, err := s.order(rep)
	if err != nil {
		return err
	}
	order = append(order, name)
	encodedOrder, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode snapshot order for %s: %w", rep, err)
	}

	return s.backend.SetMany(
		Entry{Key: key, Value: encoded},
		Entry{Key: orderKey(rep), Value: encodedOrder},
	)
}

// Get returns the content of snapshot name of rep.
// An empty name selects the most recently written snapshot.
func (s *Store) Get(rep ir.RepKey, name string) (ir.Content, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		order, err := s.order(rep)
		if err != nil {
			return ir.Content{}, false, err
		}
		if len(order) == 0 {
			return ir.Content{}, false, nil
		}
		name = order[len(order)-1]
	}

	raw, found, err := s.backend.Get(snapshotKey(rep, name))
	if err != nil || !found {
		return ir.Content{}, false, err
	}
	content, err := decodeContent(raw)
	if err != nil {
		return ir.Content{}, false, fmt.Errorf("decode snapshot %s/%s: %w", rep, name, err)
	}
	return content, true, nil
}

// Has reports whether snapshot name of rep exists.
func (s *Store) Has(rep ir.RepKey, name string) (bool, error) {
	_, found, err := s.Get(rep, name)
	return found, err
}

// Names returns the snapshot names of rep in write order.
func (s *Store) Names(rep ir.RepKey) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order(rep)
}

// MarkCompiled records that rep reached the Compiled status.
func (s *Store) MarkCompiled(rep ir.RepKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Set(compiledKey(rep), []byte{1})
}

// IsCompiled reports whether rep reached the Compiled status.
// With a persistent backend this survives across runs.
func (s *Store) IsCompiled(rep ir.RepKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found, err := s.backend.Get(compiledKey(rep))
	return found, err
}

// CompiledReps lists every rep carrying a compiled marker.
func (s *Store) CompiledReps() ([]ir.RepKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.backend.Keys([]byte("c/"))
	if err != nil {
		return nil, err
	}
	reps := make([]ir.RepKey, 0, len(keys))
	for _, k := range keys {
		rep, err := ir.ParseRepKey(strings.TrimPrefix(string(k), "c/"))
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

// BeginPass clears the snapshots and compiled markers of reps.
// Snapshots of reps not listed are left untouched.
func (s *Store) BeginPass(reps []ir.RepKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rep := range reps {
		if err := s.backend.DropPrefix(snapshotPrefix(rep)); err != nil {
			return fmt.Errorf("clear snapshots of %s: %w", rep, err)
		}
		for _, key := range [][]byte{orderKey(rep), compiledKey(rep)} {
			if err := s.backend.Delete(key); err != nil {
				return fmt.Errorf("clear snapshots of %s: %w", rep, err)
			}
		}
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// order must be called with s.mu held.
func (s *Store) order(rep ir.RepKey) ([]string, error) {
	raw, found, err := s.backend.Get(orderKey(rep))
	if err != nil || !found {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("decode snapshot order for %s: %w", rep, err)
	}
	return names, nil
}

// storedContent is the persisted form of ir.Content. Binary bodies are kept
// as bytes so JSON does not rewrite invalid UTF-8.
type storedContent struct {
	Body   string `json:"body,omitempty"`
	Data   []byte `json:"data,omitempty"`
	Binary bool   `json:"binary,omitempty"`
}

func encodeContent(c ir.Content) ([]byte, error) {
	if c.Binary {
		return json.Marshal(storedContent{Data: []byte(c.Body), Binary: true})
	}
	return json.Marshal(storedContent{Body: c.Body})
}

func decodeContent(raw []byte) (ir.Content, error) {
	var sc storedContent
	if err := json.Unmarshal(raw, &sc); err != nil {
		return ir.Content{}, err
	}
	if sc.Binary {
		return ir.Content{Body: string(sc.Data), Binary: true}, nil
	}
	return ir.TextContent(sc.Body), nil
}
