// Package cache provides the handle-based store consumed by the row-cache
// path. Entries are immutable once inserted; a Handle pins an entry's
// storage so readers can decode it without copying while eviction proceeds
// around them.
package cache

import (
	"errors"

	"github.com/google/uuid"
)

// ErrCacheFull is returned when an insert cannot fit even after evicting
// every unpinned entry. Callers on the lookup path treat insertion as
// best-effort and swallow it.
var ErrCacheFull = errors.New("cache is full")

// Cache is the get/put store with reference-counted entries.
type Cache interface {
	// Lookup returns a pinned handle for key, or nil on a miss. The caller
	// must Release the handle exactly once.
	Lookup(key []byte) *Handle
	// Insert stores value under key with the given charge against the
	// cache's capacity, replacing any existing entry.
	Insert(key, value []byte, charge int) error
	// Release drops one pin from h.
	Release(h *Handle)
}

// NewID returns a fresh cache-namespace identifier. Distinct consumers of
// one shared cache prefix their keys with distinct identifiers.
func NewID() []byte {
	id := uuid.New()
	return id[:]
}

// Handle pins one cache entry. Value stays readable until the last Release,
// and, because entries are immutable, slices into it remain valid even
// after the entry is evicted.
type Handle struct {
	entry *entry
}

// Value returns the pinned entry's payload.
func (h *Handle) Value() []byte { return h.entry.value }
