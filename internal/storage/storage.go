package storage

import (
	"fmt"
	"strings"
	"sync"
)

// Backend names accepted by Open
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// Storage persists session keys across process runs.
// Get reports ok=false for a key that was never set or has been deleted.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Open returns the storage backend with the given name.
// dir is only used by the file backend.
func Open(backend, dir string) (Storage, error) {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(dir)
	case BackendKeyring:
		return NewKeyring(keyringService), nil
	default:
		return nil, fmt.Errorf("unknown session backend '%s', must be one of: memory, file, keyring", backend)
	}
}

// Memory keeps keys in process memory, like a browser tab's session storage
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory storage
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
