package cache

import "sync"

// entry is one cached row. An entry is "in table" while reachable from the
// key map and "in list" only while unpinned; pinned entries leave the LRU
// list so eviction never selects them.
type entry struct {
	key    string
	value  []byte
	charge int
	refs   int
	inTable bool

	prev, next *entry
}

// LRU is a least-recently-used Cache with charge-based capacity and pin
// counts. The map plus intrusive doubly-linked list give O(1) lookup,
// insert and eviction.
type LRU struct {
	mu       sync.Mutex
	capacity int
	usage    int
	table    map[string]*entry
	// Dummy head/tail; head.next is the most recently used entry.
	head, tail *entry
}

// NewLRU creates a cache holding at most capacity charge units.
func NewLRU(capacity int) *LRU {
	head := &entry{}
	tail := &entry{}
	head.next = tail
	tail.prev = head
	return &LRU{
		capacity: capacity,
		table:    make(map[string]*entry),
		head:     head,
		tail:     tail,
	}
}

func (c *LRU) listRemove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

func (c *LRU) listPushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

// Lookup returns a pinned handle for key, or nil.
func (c *LRU) Lookup(key []byte) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.table[string(key)]
	if !ok {
		return nil
	}
	if e.refs == 0 {
		c.listRemove(e)
	}
	e.refs++
	return &Handle{entry: e}
}

// Insert stores value under key, evicting unpinned entries as needed.
func (c *LRU) Insert(key, value []byte, charge int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.table[string(key)]; ok {
		c.detachLocked(old)
	}

	for c.usage+charge > c.capacity && c.tail.prev != c.head {
		c.detachLocked(c.tail.prev)
	}
	if c.usage+charge > c.capacity {
		return ErrCacheFull
	}

	e := &entry{key: string(key), value: value, charge: charge, inTable: true}
	c.table[e.key] = e
	c.usage += charge
	c.listPushFront(e)
	return nil
}

// Release drops one pin. The last release of an evicted entry has nothing
// left to do; GC reclaims the storage once no handle slices remain.
func (c *LRU) Release(h *Handle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := h.entry
	if e.refs <= 0 {
		panic("cache: Release of unpinned handle")
	}
	e.refs--
	if e.refs == 0 && e.inTable {
		c.listPushFront(e)
	}
}

// detachLocked removes e from the table and charge accounting. Pinned
// entries keep their storage alive through outstanding handles.
func (c *LRU) detachLocked(e *entry) {
	if !e.inTable {
		return
	}
	delete(c.table, e.key)
	e.inTable = false
	c.usage -= e.charge
	if e.refs == 0 {
		c.listRemove(e)
	}
}

// Usage returns the charge currently held in the table.
func (c *LRU) Usage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Len returns the number of entries in the table.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}
