// Package store holds the authoritative local cache of last-known device
// state. Poll results and control reconciliations both write here; the
// presentation layer only ever reads.
package store

import (
	"sync"

	"govee-cloud-bridge/internal/capability"
)

// Store defines the interface for the per-device state cache.
type Store interface {
	// Get returns the last stored state for a device. A false return means
	// the device was never observed, which is distinct from an observed
	// empty state.
	Get(deviceID string) (capability.DeviceState, bool)
	// Put replaces the stored state for a device. The cache holds exactly
	// one generation per device; writers fully overwrite.
	Put(deviceID string, state capability.DeviceState)
	// CapabilityValue returns the cached value of one capability instance.
	CapabilityValue(deviceID string, typ capability.Type, instance string) (any, bool)
}

// memoryStore implements Store with a mutex-guarded map. Poll loops and
// one-shot control tasks interleave; last-writer-wins is acceptable because
// both writers re-derive the same externally-sourced truth.
type memoryStore struct {
	mu     sync.RWMutex
	states map[string]capability.DeviceState
}

// NewMemoryStore creates an empty in-memory state cache.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[string]capability.DeviceState)}
}

func (s *memoryStore) Get(deviceID string) (capability.DeviceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[deviceID]
	return st, ok
}

func (s *memoryStore) Put(deviceID string, state capability.DeviceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[deviceID] = state
}

func (s *memoryStore) CapabilityValue(deviceID string, typ capability.Type, instance string) (any, bool) {
	st, ok := s.Get(deviceID)
	if !ok {
		return nil, false
	}
	return st.Value(typ, instance)
}
