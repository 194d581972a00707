package repository

import (
	"encoding/json"
	"reflect"
)

// Metadata holds versioning info for optimistic locking between the
// in-memory mirror and the file on disk.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// CacheDocument is the persisted shape of the local store: one string
// entry per entity family, each value being a JSON-encoded collection.
type CacheDocument struct {
	Metadata Metadata          `json:"metadata"`
	Entries  map[string]string `json:"entries" validate:"dive,omitempty,json"`
}

// ApplyDefaults sets fallback values after decode.
func (d *CacheDocument) ApplyDefaults() {
	if d.Entries == nil {
		d.Entries = map[string]string{}
	}
}

// AreCacheDocumentsEqual compares two documents ignoring Metadata.
func AreCacheDocumentsEqual(a, b *CacheDocument) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(normalizedEntries(a), normalizedEntries(b))
}

// normalizedEntries re-decodes each entry so formatting differences in
// the stored JSON don't break equality.
func normalizedEntries(d *CacheDocument) map[string]any {
	out := make(map[string]any, len(d.Entries))
	for key, value := range d.Entries {
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			out[key] = value
			continue
		}
		out[key] = decoded
	}
	return out
}
