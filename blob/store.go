// Package blob stores named opaque byte blobs: configuration files on
// a host directory, in memory, or in fixed slots of on-chip flash.
package blob

import (
	"errors"
	"sync"
)

var (
	// ErrNotExist is returned when reading or removing a blob that was never written
	ErrNotExist = errors.New("blob does not exist")

	// ErrCorrupt is returned when a stored record fails its checksum
	ErrCorrupt = errors.New("blob corrupt")

	// ErrNoSpace is returned when a blob does not fit the store
	ErrNoSpace = errors.New("no space for blob")
)

// Store is a named blob store. Names are slash-rooted paths such as "/cntlr_var.jsn".
type Store interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Remove(name string) error
}

// MemStore keeps blobs in memory. Write failures can be injected per name.
type MemStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	writes map[string]int
	fail   map[string]error
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		blobs:  make(map[string][]byte),
		writes: make(map[string]int),
		fail:   make(map[string]error),
	}
}

func (m *MemStore) Read(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotExist
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemStore) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail[name]; err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[name] = buf
	m.writes[name]++
	return nil
}

func (m *MemStore) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[name]; !ok {
		return ErrNotExist
	}
	delete(m.blobs, name)
	return nil
}

// FailWrites makes every write to name return err until cleared with a nil err
func (m *MemStore) FailWrites(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.fail, name)
		return
	}
	m.fail[name] = err
}

// Writes returns the number of successful writes to name
func (m *MemStore) Writes(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[name]
}

// Names returns the stored blob names
func (m *MemStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	return names
}
