package memtable

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"

	"github.com/quarrydb/quarry/internal/arena"
	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/skiplist"
)

// HashSkipListRep is the "prefix_hash" representation: lazily-created
// skip-list buckets addressed by a hash of the transformed user key.
//
// Concurrency: bucket pointers are published with atomic stores and read
// with atomic loads. Writers targeting different buckets are independent;
// writers within one bucket rely on the bucket's single-writer contract and
// must be serialized by the caller. Readers never block.
type HashSkipListRep struct {
	buckets []atomic.Pointer[skiplist.List]

	transform base.Transform
	cmp       *base.InternalKeyComparator
	arena     *arena.Arena

	skiplistHeight    int
	skiplistBranching int

	logger *zap.Logger
}

// NewHashSkipListRep builds a rep with opts applied. The bucket count,
// hash function and transform are fixed for the rep's lifetime: keys are
// never re-sharded.
func NewHashSkipListRep(cmp *base.InternalKeyComparator, a *arena.Arena, transform base.Transform, opts Options, logger *zap.Logger) *HashSkipListRep {
	if logger == nil {
		logger = zap.NewNop()
	}
	rep := &HashSkipListRep{
		buckets:           make([]atomic.Pointer[skiplist.List], opts.BucketCount),
		transform:         transform,
		cmp:               cmp,
		arena:             a,
		skiplistHeight:    opts.SkiplistHeight,
		skiplistBranching: opts.SkiplistBranching,
		logger:            logger,
	}
	logger.Debug("created prefix_hash memtable rep",
		zap.Int("bucket_count", opts.BucketCount),
		zap.Int("skiplist_height", opts.SkiplistHeight),
		zap.Int("skiplist_branching_factor", opts.SkiplistBranching),
		zap.String("transform", transform.Name()),
	)
	return rep
}

func (r *HashSkipListRep) shard(transformed []byte) uint64 {
	return murmur3.Sum64(transformed) % uint64(len(r.buckets))
}

func (r *HashSkipListRep) getBucket(transformed []byte) *skiplist.List {
	return r.buckets[r.shard(transformed)].Load()
}

// getInitializedBucket returns the bucket for transformed, creating it if
// absent. Compare-and-publish guarantees one live bucket per shard even
// under racing creators; a loser's list is abandoned to the arena.
func (r *HashSkipListRep) getInitializedBucket(transformed []byte) *skiplist.List {
	h := r.shard(transformed)
	if b := r.buckets[h].Load(); b != nil {
		return b
	}
	nb := skiplist.New(r.cmp.CompareRecords, r.arena, r.skiplistHeight, r.skiplistBranching)
	if r.buckets[h].CompareAndSwap(nil, nb) {
		return nb
	}
	return r.buckets[h].Load()
}

// Insert adds an encoded record to the bucket its user key's prefix hashes
// to. The internal key must not already exist (caller-enforced).
func (r *HashSkipListRep) Insert(record []byte) {
	ikey, err := base.DecodeRecordKey(record)
	if err != nil {
		panic("memtable: Insert of undecodable record")
	}
	transformed := r.transform.Transform(base.ExtractUserKey(ikey))
	r.getInitializedBucket(transformed).Insert(record)
}

// Contains reports whether the encoded internal key is present. A missing
// bucket means no writes under this prefix yet.
func (r *HashSkipListRep) Contains(internalKey []byte) bool {
	transformed := r.transform.Transform(base.ExtractUserKey(internalKey))
	bucket := r.getBucket(transformed)
	if bucket == nil {
		return false
	}
	return bucket.Contains(encodeSeekKey(nil, internalKey))
}

// Get visits the records at and after lk's seek position in the addressed
// bucket, stopping when visitor returns false. The rep has no opinion on
// merges or tombstones; it only produces candidates in sort order.
func (r *HashSkipListRep) Get(lk *base.LookupKey, visitor func(record []byte) bool) {
	transformed := r.transform.Transform(lk.UserKey())
	bucket := r.getBucket(transformed)
	if bucket == nil {
		return
	}
	iter := bucket.NewIterator()
	for iter.Seek(lk.MemtableKey()); iter.Valid() && visitor(iter.Key()); iter.Next() {
	}
}

// GetIterator merges every live bucket into one throwaway bucket on a
// private arena and returns a snapshot iterator owning it. This walks every
// record in the rep; it is the rarely-used escape hatch for total order,
// not a hot path.
func (r *HashSkipListRep) GetIterator() Iterator {
	snapArena := arena.New(r.arena.BlockSize())
	merged := skiplist.New(r.cmp.CompareRecords, snapArena, r.skiplistHeight, r.skiplistBranching)
	empty := true
	for i := range r.buckets {
		bucket := r.buckets[i].Load()
		if bucket == nil {
			continue
		}
		iter := bucket.NewIterator()
		for iter.SeekToFirst(); iter.Valid(); iter.Next() {
			merged.Insert(iter.Key())
			empty = false
		}
	}
	if empty {
		return emptyIterator{}
	}
	return newSnapshotIterator(merged)
}

// GetDynamicPrefixIterator returns an iterator that re-resolves the target
// bucket on every Seek.
func (r *HashSkipListRep) GetDynamicPrefixIterator() Iterator {
	return &dynamicIterator{rep: r}
}

// ApproximateMemoryUsage returns 0. Memory accounting is delegated to the
// shared arena; this is an accepted limitation of the prefix_hash rep.
func (r *HashSkipListRep) ApproximateMemoryUsage() int64 { return 0 }

// encodeSeekKey appends the uvarint-prefixed form of an encoded internal
// key, the shape buckets compare against.
func encodeSeekKey(dst, ikey []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(ikey)))
	return append(dst, ikey...)
}
