package memtable

import (
	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/skiplist"
)

// staticIterator wraps one bucket. When constructed as a snapshot it owns
// the bucket and the private arena behind it; both are released together
// when the iterator is garbage. When wrapping a live bucket it controls
// nothing and must not outlive the rep.
type staticIterator struct {
	list *skiplist.List
	iter *skiplist.Iterator
	tmp  []byte // scratch for seek-key encoding
}

func newSnapshotIterator(list *skiplist.List) *staticIterator {
	return &staticIterator{list: list, iter: list.NewIterator()}
}

// reset rebinds to another bucket (possibly nil), dropping any previous
// position.
func (it *staticIterator) reset(list *skiplist.List) {
	it.list = list
	if it.iter == nil {
		it.iter = &skiplist.Iterator{}
	}
	it.iter.SetList(list)
}

func (it *staticIterator) Valid() bool {
	return it.list != nil && it.iter.Valid()
}

func (it *staticIterator) Key() []byte {
	if !it.Valid() {
		panic("memtable: Key on invalid iterator")
	}
	return it.iter.Key()
}

func (it *staticIterator) Next() {
	if !it.Valid() {
		panic("memtable: Next on invalid iterator")
	}
	it.iter.Next()
}

func (it *staticIterator) Prev() {
	if !it.Valid() {
		panic("memtable: Prev on invalid iterator")
	}
	it.iter.Prev()
}

func (it *staticIterator) Seek(ikey []byte) {
	if it.list == nil {
		return
	}
	it.tmp = encodeSeekKey(it.tmp[:0], ikey)
	it.iter.Seek(it.tmp)
}

func (it *staticIterator) SeekForPrev([]byte) {
	panic("memtable: SeekForPrev is not supported by prefix_hash iterators")
}

func (it *staticIterator) SeekToFirst() {
	if it.list == nil {
		return
	}
	it.iter.SeekToFirst()
}

func (it *staticIterator) SeekToLast() {
	if it.list == nil {
		return
	}
	it.iter.SeekToLast()
}

// dynamicIterator back-references its rep (never owning it) and rebinds to
// whichever bucket each Seek target's prefix hashes to. It has no notion of
// a first or last position across unordered shards.
type dynamicIterator struct {
	staticIterator
	rep *HashSkipListRep
}

func (it *dynamicIterator) Seek(ikey []byte) {
	transformed := it.rep.transform.Transform(base.ExtractUserKey(ikey))
	it.reset(it.rep.getBucket(transformed))
	it.staticIterator.Seek(ikey)
}

func (it *dynamicIterator) SeekToFirst() {
	// No total order across shards; park the iterator in an invalid,
	// bucket-less state.
	it.reset(nil)
}

func (it *dynamicIterator) SeekToLast() {
	it.reset(nil)
}

// emptyIterator is the always-invalid variant, cheaper than instantiating
// a bucket to iterate nothing.
type emptyIterator struct{}

func (emptyIterator) Valid() bool { return false }

func (emptyIterator) Key() []byte {
	panic("memtable: Key on empty iterator")
}

func (emptyIterator) Next()        {}
func (emptyIterator) Prev()        {}
func (emptyIterator) Seek([]byte)  {}
func (emptyIterator) SeekToFirst() {}
func (emptyIterator) SeekToLast()  {}

func (emptyIterator) SeekForPrev([]byte) {
	panic("memtable: SeekForPrev is not supported by prefix_hash iterators")
}
