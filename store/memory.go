package store

import (
	"sync"

	"github.com/example-labs/gitclone/object"
)

// Memory is an in-memory Store, used in tests that need a Store
// without touching the filesystem.
type Memory struct {
	mu      sync.RWMutex
	objects map[object.ID]object.Interface
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[object.ID]object.Interface)}
}

func (m *Memory) Has(id object.ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok, nil
}

func (m *Memory) Get(id object.ID) (object.Interface, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return obj, nil
}

func (m *Memory) Put(obj object.Interface) (object.ID, error) {
	id, err := object.Hash(obj)
	if err != nil {
		return id, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id] = obj
	return id, nil
}
