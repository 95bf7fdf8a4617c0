// Package skiplist implements the ordered bucket primitive: an arena-backed
// skip list over encoded records, ordered by a caller-supplied comparator.
//
// Concurrency contract: one writer at a time (callers serialize writers per
// bucket), any number of concurrent readers with no locking. New nodes are
// fully initialized before being published into next pointers with atomic
// stores, and readers traverse exclusively through atomic loads. Entries are
// never removed; a list only grows.
package skiplist

import (
	"sync/atomic"

	"github.com/quarrydb/quarry/internal/arena"
)

const (
	// DefaultMaxHeight bounds tower height unless configured otherwise.
	DefaultMaxHeight = 4
	// DefaultBranching is the expected fan-out between levels.
	DefaultBranching = 4
)

type node struct {
	record []byte
	next   []atomic.Pointer[node]
}

func (n *node) loadNext(level int) *node { return n.next[level].Load() }

// List is a sorted, append-only collection of encoded records.
type List struct {
	head        *node
	cmp         func(a, b []byte) int
	arena       *arena.Arena
	maxHeight   atomic.Int32 // current tallest tower, <= heightBound
	heightBound int
	branching   int
	rng         uint64
}

// New creates an empty list. cmp orders encoded records; records and keys
// passed to Seek/Contains must be comparable under it. heightBound and
// branching fall back to the defaults when non-positive.
func New(cmp func(a, b []byte) int, a *arena.Arena, heightBound, branching int) *List {
	if heightBound <= 0 {
		heightBound = DefaultMaxHeight
	}
	if branching <= 1 {
		branching = DefaultBranching
	}
	l := &List{
		head:        &node{next: make([]atomic.Pointer[node], heightBound)},
		cmp:         cmp,
		arena:       a,
		heightBound: heightBound,
		branching:   branching,
		rng:         0x2545F4914F6CDD1D,
	}
	l.maxHeight.Store(1)
	return l
}

// Arena returns the allocator backing this list's records.
func (l *List) Arena() *arena.Arena { return l.arena }

// randomHeight draws a tower height with geometric 1/branching decay.
// The xorshift state is writer-only.
func (l *List) randomHeight() int {
	h := 1
	for h < l.heightBound {
		l.rng ^= l.rng << 13
		l.rng ^= l.rng >> 7
		l.rng ^= l.rng << 17
		if int(l.rng%uint64(l.branching)) != 0 {
			break
		}
		h++
	}
	return h
}

// findGreaterOrEqual returns the first node with record >= key, filling
// prev (when non-nil) with the predecessor at every level.
func (l *List) findGreaterOrEqual(key []byte, prev []*node) *node {
	x := l.head
	level := int(l.maxHeight.Load()) - 1
	for {
		next := x.loadNext(level)
		if next != nil && l.cmp(next.record, key) < 0 {
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return next
		}
		level--
	}
}

// findLessThan returns the last node with record < key, or head.
func (l *List) findLessThan(key []byte) *node {
	x := l.head
	level := int(l.maxHeight.Load()) - 1
	for {
		next := x.loadNext(level)
		if next != nil && l.cmp(next.record, key) < 0 {
			x = next
			continue
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// findLast returns the last node, or head when empty.
func (l *List) findLast() *node {
	x := l.head
	level := int(l.maxHeight.Load()) - 1
	for {
		next := x.loadNext(level)
		if next != nil {
			x = next
			continue
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// Insert adds a record, copying it into the list's arena so the stored
// bytes outlive the caller's buffer. The caller guarantees no record equal
// to it under the comparator already exists, and that it is the only
// writer.
func (l *List) Insert(record []byte) {
	record = l.arena.Append(record)
	prev := make([]*node, l.heightBound)
	l.findGreaterOrEqual(record, prev)

	height := l.randomHeight()
	if cur := int(l.maxHeight.Load()); height > cur {
		for i := cur; i < height; i++ {
			prev[i] = l.head
		}
		// Readers that still see the old height simply skip the new
		// levels; correctness only needs level 0.
		l.maxHeight.Store(int32(height))
	}

	n := &node{record: record, next: make([]atomic.Pointer[node], height)}
	for i := 0; i < height; i++ {
		n.next[i].Store(prev[i].loadNext(i))
		prev[i].next[i].Store(n)
	}
}

// Contains reports whether a record equal to key under the comparator is
// present.
func (l *List) Contains(key []byte) bool {
	n := l.findGreaterOrEqual(key, nil)
	return n != nil && l.cmp(n.record, key) == 0
}
