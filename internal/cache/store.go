package cache

import (
	"encoding/json"
	"sync"

	"github.com/LeMaitre4523/quelquechose-v6/internal/repository"
)

// Store is the in-memory mirror of the persistent key-value cache. All
// reads are served from memory; writes mutate memory and mark the store
// dirty so the persistence scheduler flushes them to disk.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]string
	dirty      bool  // true if cache changed since last persist
	lastUpdate int64 // cache's metadata.lastUpdate
}

// NewStore creates a store mirroring the given document.
func NewStore(doc repository.CacheDocument) *Store {
	entries := make(map[string]string, len(doc.Entries))
	for k, v := range doc.Entries {
		entries[k] = v
	}
	return &Store{entries: entries, lastUpdate: doc.Metadata.LastUpdate}
}

// GetItem returns the value stored under key, or ErrKeyNotFound.
func (s *Store) GetItem(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// SetItem stores value under key and marks the store dirty.
func (s *Store) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.dirty = true
}

// MultiSet stores every pair and marks the store dirty once.
func (s *Store) MultiSet(pairs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range pairs {
		s.entries[key] = value
	}
	if len(pairs) > 0 {
		s.dirty = true
	}
}

// RemoveItem deletes a key. Removing an absent key is a no-op.
func (s *Store) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	s.dirty = true
}

// GetAllKeys returns every stored key.
func (s *Store) GetAllKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// IsDirty returns true if the store has uncommitted changes.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// GetLastUpdate returns the mirrored document's last update timestamp.
func (s *Store) GetLastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// SetLastUpdate sets the mirrored document's last update timestamp.
func (s *Store) SetLastUpdate(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = ts
}

// Snapshot returns a deep copy of the mirrored document.
func (s *Store) Snapshot() (repository.CacheDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	return repository.CacheDocument{
		Metadata: repository.Metadata{LastUpdate: s.lastUpdate},
		Entries:  entries,
	}, nil
}

// Replace swaps the mirrored document, typically after the watcher saw
// a newer file version on disk.
func (s *Store) Replace(doc repository.CacheDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make(map[string]string, len(doc.Entries))
	for k, v := range doc.Entries {
		entries[k] = v
	}
	s.entries = entries
	s.lastUpdate = doc.Metadata.LastUpdate
	s.dirty = false
	return nil
}

// GetJSON decodes the collection stored under key into out.
func (s *Store) GetJSON(key string, out any) error {
	raw, err := s.GetItem(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// SetJSON encodes value and stores it under key.
func (s *Store) SetJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.SetItem(key, string(raw))
	return nil
}
