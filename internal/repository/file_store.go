package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"

	"github.com/LeMaitre4523/quelquechose-v6/internal/logger"
)

// FileStore persists the cache document to a single JSON file and
// watches it for external edits.
type FileStore struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	mu        sync.Mutex
}

// NewFileStore creates a store for the given JSON file path.
// It returns the Repository interface to avoid leaking implementation details.
func NewFileStore(path string) (Repository, error) {
	if path == "" {
		return nil, errors.New("cache file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}

	return &FileStore{path: path, dir: dir, base: base, validator: validator.New()}, nil
}

// Load reads the cache file, parses and validates it.
func (r *FileStore) Load(_ context.Context) (*CacheDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *FileStore) loadUnlocked() (*CacheDocument, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	var doc CacheDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	doc.ApplyDefaults()

	if r.validator != nil {
		if err := r.validator.Struct(&doc); err != nil {
			return nil, fmt.Errorf("validate cache file: %w", err)
		}
	}

	return &doc, nil
}

// Save validates and writes the document atomically to disk.
func (r *FileStore) Save(_ context.Context, doc *CacheDocument) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if r.validator != nil {
		if err := r.validator.Struct(doc); err != nil {
			return fmt.Errorf("validate before save: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveUnlocked(doc)
}

func (r *FileStore) saveUnlocked(doc *CacheDocument) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}

// StartWatcher listens for changes to the cache file and reconciles the
// in-memory mirror after debounce. It watches the parent directory (not
// the file) so atomic replace sequences (temp+rename) are still
// observed. Events are filtered by basename and debounced to avoid
// double reloads on write+chmod/rename cycles. The caller owns the
// provided context: cancel it to stop the goroutine and close the
// watcher cleanly.
func (r *FileStore) StartWatcher(ctx context.Context, mirror CacheMirror) error {
	if mirror == nil {
		return errors.New("cache mirror is required")
	}
	onChange := r.MakeWatcherCallback(mirror)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename)
		// into a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce = time.AfterFunc(200*time.Millisecond, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("file-store").Errorf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns a callback that reloads the mirror from
// disk when the file version is newer and the mirror has no pending
// writes of its own.
func (r *FileStore) MakeWatcherCallback(mirror CacheMirror) func() {
	log := logger.WithComponent("file-store")
	return func() {
		diskDoc, loadErr := r.Load(context.Background())
		if loadErr != nil {
			log.Errorf("watch reload failed: %v", loadErr)
			return
		}
		mirrorLastUpdate := mirror.GetLastUpdate()
		diskLastUpdate := diskDoc.Metadata.LastUpdate

		if diskLastUpdate < mirrorLastUpdate {
			log.Debugf("disk version is not newer than mirror: disk=%d mirror=%d", diskLastUpdate, mirrorLastUpdate)
			return
		}

		if mirror.IsDirty() {
			// The mirror content will be flushed to the file soon anyway.
			log.Warn("disk data is newer but mirror is dirty; skipping reload")
			return
		}

		if diskLastUpdate == mirrorLastUpdate {
			snapshot, err := mirror.Snapshot()
			if err != nil {
				log.Errorf("mirror reload error: failed to get snapshot: %v", err)
				return
			}
			if AreCacheDocumentsEqual(&snapshot, diskDoc) {
				return
			}
		}

		if err := mirror.Replace(*diskDoc); err != nil {
			log.Errorf("mirror reload error: %v", err)
			return
		}
		log.Info("mirror reloaded from newer disk version")
	}
}
