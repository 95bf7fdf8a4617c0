// Package arena provides the acquire-only bump allocator backing buckets.
// Nothing is ever freed individually; an arena's memory is reclaimed as a
// whole when the last reference to it is dropped.
package arena

import (
	"sync"
	"sync/atomic"
)

// DefaultBlockSize is the growth unit for new arenas.
const DefaultBlockSize = 64 * 1024

// Arena hands out byte slices from large blocks. Allocate is safe for
// concurrent use; allocations are never returned.
type Arena struct {
	mu        sync.Mutex
	cur       []byte
	blockSize int
	used      atomic.Int64
}

// New creates an arena growing in blocks of blockSize bytes. A
// non-positive blockSize selects DefaultBlockSize.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize}
}

// Allocate returns a zeroed slice of n bytes owned by the arena.
func (a *Arena) Allocate(n int) []byte {
	a.used.Add(int64(n))
	if n >= a.blockSize/4 {
		// Oversized requests get their own block so block tails stay usable.
		return make([]byte, n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cur)+n > cap(a.cur) {
		a.cur = make([]byte, 0, a.blockSize)
	}
	start := len(a.cur)
	a.cur = a.cur[:start+n]
	return a.cur[start : start+n : start+n]
}

// Append copies b into arena-owned memory.
func (a *Arena) Append(b []byte) []byte {
	dst := a.Allocate(len(b))
	copy(dst, b)
	return dst
}

// BlockSize returns the arena's growth unit.
func (a *Arena) BlockSize() int { return a.blockSize }

// MemoryUsage returns the total bytes handed out so far.
func (a *Arena) MemoryUsage() int64 { return a.used.Load() }
