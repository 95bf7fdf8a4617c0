package memtable

import (
	"github.com/quarrydb/quarry/internal/base"
)

// Rep is the memtable-representation contract. Implementations store
// encoded records (base.EncodeRecord layout) and answer point and range
// reads over them. None of the methods return errors: absence is a normal
// outcome and malformed use is a programming-contract violation that
// panics.
type Rep interface {
	// Insert adds an encoded record. The record's internal key must not
	// already exist in the rep; the caller enforces this precondition and
	// it is not re-validated here. The chosen bucket is a pure function of
	// the key, fixed for the rep's lifetime.
	Insert(record []byte)

	// Contains reports whether the exact encoded internal key is present.
	Contains(internalKey []byte) bool

	// Get streams the records at and after lk's position in the addressed
	// bucket, in ascending internal-key order, to visitor until it returns
	// false or the bucket is exhausted. An absent bucket means no writes
	// under the key's prefix: zero candidates, not an error.
	Get(lk *base.LookupKey, visitor func(record []byte) bool)

	// GetIterator returns a total-order iterator over a merged snapshot of
	// every bucket. Building it costs O(total entries).
	GetIterator() Iterator

	// GetDynamicPrefixIterator returns an iterator that rebinds to the
	// bucket addressed by each Seek target. It has no meaningful first or
	// last position.
	GetDynamicPrefixIterator() Iterator

	// ApproximateMemoryUsage reports rep-tracked memory. The prefix_hash
	// rep deliberately returns 0: accounting lives with the arena.
	ApproximateMemoryUsage() int64
}

// Iterator is the closed cross-component iteration protocol. Exactly three
// implementations exist: the static bucket/snapshot iterator, the dynamic
// prefix iterator, and the empty iterator. Valid is the precondition for
// Key, Next and Prev; violating it panics. SeekForPrev is undefined for
// hashed sharding and panics on every variant.
type Iterator interface {
	Valid() bool
	// Key returns the full encoded record at the current position.
	Key() []byte
	Next()
	Prev()
	// Seek positions at the first record with internal key >= ikey.
	Seek(ikey []byte)
	SeekForPrev(ikey []byte)
	SeekToFirst()
	SeekToLast()
}
