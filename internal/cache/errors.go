package cache

import "errors"

// ErrKeyNotFound is returned when a cache key has never been written.
var ErrKeyNotFound = errors.New("cache key not found")
