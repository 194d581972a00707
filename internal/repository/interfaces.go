package repository

import "context"

// Saver persists a CacheDocument.
// Small interface used by background jobs like the persistence scheduler.
type Saver interface {
	Save(ctx context.Context, doc *CacheDocument) error
}

// Repository abstracts persistence and watching of the cache file.
// FileStore implements this interface.
type Repository interface {
	Saver
	Load(ctx context.Context) (*CacheDocument, error)
	StartWatcher(ctx context.Context, mirror CacheMirror) error
}

// CacheMirror is the in-memory side the watcher reconciles against.
type CacheMirror interface {
	GetLastUpdate() int64
	IsDirty() bool
	Snapshot() (CacheDocument, error)
	Replace(doc CacheDocument) error
}
