package driver

import (
	"context"
	"sync"
)

// MemoryKV process local KeyValueDB
type MemoryKV struct {
	mu    sync.Mutex
	lists map[string][]string
}

var _ KeyValueDB = &MemoryKV{}

// NewMemoryKV create an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{lists: make(map[string][]string)}
}

// Push implement KeyValueDB
func (m *MemoryKV) Push(ctx context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(m.lists[key], values...)
	return nil
}

// Range implement KeyValueDB
func (m *MemoryKV) Range(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	result := make([]string, len(list))
	copy(result, list)
	return result, nil
}

// RemoveValues implement KeyValueDB
func (m *MemoryKV) RemoveValues(ctx context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	for _, v := range values {
		for i, e := range list {
			if e == v {
				list = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	if len(list) == 0 {
		delete(m.lists, key)
		return nil
	}
	m.lists[key] = list
	return nil
}

// Len implement KeyValueDB
func (m *MemoryKV) Len(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

// Ping implement KeyValueDB
func (m *MemoryKV) Ping() error {
	return nil
}
