package skiplist

// Iterator walks a List in either direction. It holds no locks; the
// single-writer-many-reader contract of List makes concurrent iteration
// safe. Positional operations require Valid and panic otherwise.
type Iterator struct {
	list *List
	node *node
}

// NewIterator returns an iterator over l, initially invalid.
func (l *List) NewIterator() *Iterator {
	return &Iterator{list: l}
}

// SetList rebinds the iterator to another list and invalidates its
// position. list may be nil, leaving the iterator permanently invalid
// until rebound.
func (it *Iterator) SetList(list *List) {
	it.list = list
	it.node = nil
}

// Valid reports whether the iterator is positioned at a record.
func (it *Iterator) Valid() bool { return it.node != nil }

// Key returns the record at the current position.
func (it *Iterator) Key() []byte {
	if !it.Valid() {
		panic("skiplist: Key on invalid iterator")
	}
	return it.node.record
}

// Next advances to the following record.
func (it *Iterator) Next() {
	if !it.Valid() {
		panic("skiplist: Next on invalid iterator")
	}
	it.node = it.node.loadNext(0)
}

// Prev retreats to the preceding record. Nodes carry no back links; the
// predecessor is refound from the head.
func (it *Iterator) Prev() {
	if !it.Valid() {
		panic("skiplist: Prev on invalid iterator")
	}
	n := it.list.findLessThan(it.node.record)
	if n == it.list.head {
		n = nil
	}
	it.node = n
}

// Seek positions at the first record >= key, or invalid if none.
func (it *Iterator) Seek(key []byte) {
	if it.list == nil {
		return
	}
	it.node = it.list.findGreaterOrEqual(key, nil)
}

// SeekToFirst positions at the first record; invalid when empty.
func (it *Iterator) SeekToFirst() {
	if it.list == nil {
		return
	}
	it.node = it.list.head.loadNext(0)
}

// SeekToLast positions at the last record; invalid when empty.
func (it *Iterator) SeekToLast() {
	if it.list == nil {
		return
	}
	n := it.list.findLast()
	if n == it.list.head {
		n = nil
	}
	it.node = n
}
