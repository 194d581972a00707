package cache

import "github.com/LeMaitre4523/quelquechose-v6/internal/repository"

// KV is the key-value surface of the local persistent store as the
// cache manager consumes it.
type KV interface {
	GetItem(key string) (string, error)
	SetItem(key, value string)
	MultiSet(pairs map[string]string)
	RemoveItem(key string)
	GetAllKeys() []string
	GetJSON(key string, out any) error
	SetJSON(key string, value any) error
}

// PersistableStore is the cache API needed by the persistence scheduler.
type PersistableStore interface {
	IsDirty() bool
	Snapshot() (repository.CacheDocument, error)
	ClearDirty()
	SetLastUpdate(ts int64)
}

// AppStore is the full cache contract the application container
// exposes: the KV surface plus what the watcher and the persistence
// scheduler need.
type AppStore interface {
	KV
	repository.CacheMirror
	PersistableStore
}
