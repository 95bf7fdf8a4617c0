package lookup

import (
	"encoding/binary"

	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/cache"
	"github.com/quarrydb/quarry/internal/metrics"
)

// cacheEntryOverhead is the fixed per-entry charge added on top of key and
// payload sizes when inserting a replay log into the row cache.
const cacheEntryOverhead = 32

// ReplayLog accumulates the records one lookup consumed, in consumption
// order, as repeated (1-byte type, uvarint length, value bytes) groups with
// no trailing terminator. It is the payload stored in the row cache.
type ReplayLog struct {
	buf   []byte
	pairs int
}

var _ ReplayWriter = (*ReplayLog)(nil)

// Append records one consumed (type, value) pair.
func (l *ReplayLog) Append(t base.ValueType, value []byte) {
	if l.buf == nil {
		// Common case is a single pair; size the buffer exactly for it.
		l.buf = make([]byte, 0, 1+binary.MaxVarintLen32+len(value))
	}
	l.buf = append(l.buf, byte(t))
	l.buf = binary.AppendUvarint(l.buf, uint64(len(value)))
	l.buf = append(l.buf, value...)
	l.pairs++
}

// Empty reports whether nothing was recorded.
func (l *ReplayLog) Empty() bool { return l.pairs == 0 }

// Pairs returns the number of recorded groups.
func (l *ReplayLog) Pairs() int { return l.pairs }

// Bytes returns the wire form of the log.
func (l *ReplayLog) Bytes() []byte { return l.buf }

// AddToCache inserts the log under key, charged at key size plus payload
// size plus a fixed overhead. Insertion is best-effort: a full cache is not
// a lookup failure. Logs for unresolved or corrupt lookups, and empty logs,
// are not cached; the caller gates on resolution success.
func (l *ReplayLog) AddToCache(c cache.Cache, key []byte, m *metrics.Metrics) {
	if l.Empty() {
		return
	}
	if err := c.Insert(key, l.buf, len(key)+len(l.buf)+cacheEntryOverhead); err != nil {
		return
	}
	m.RecordRowCacheAdd()
}

// CacheKey builds the row-cache key: namespace identifier, uvarint file
// identifier, uvarint sequence horizon, then the raw user key.
func CacheKey(namespaceID []byte, fileNumber uint64, seq base.SequenceNumber, userKey []byte) []byte {
	key := make([]byte, 0, len(namespaceID)+2*binary.MaxVarintLen64+len(userKey))
	key = append(key, namespaceID...)
	key = binary.AppendUvarint(key, fileNumber)
	key = binary.AppendUvarint(key, uint64(seq))
	return append(key, userKey...)
}

// CacheSequence picks the sequence horizon baked into a cache key: the
// lookup's snapshot-visible upper bound when a snapshot is active, else the
// table's largest sequence. Entries thereby survive row updates that
// happened before the cached read's visibility horizon, and snapshot reads
// at or past the largest sequence share lines with non-snapshot reads.
func CacheSequence(hasSnapshot bool, largestSeq, lookupSeq base.SequenceNumber) base.SequenceNumber {
	if hasSnapshot && lookupSeq < largestSeq {
		return lookupSeq
	}
	return largestSeq
}

// ReplayFromCache probes the row cache and, on a hit, replays the cached
// log through r, reproducing the original scan's outcome with no storage
// access. The cache entry stays pinned for the duration of the replay and
// is released on every exit path; values handed out alias the entry's
// buffer, which outlives eviction. Records are replayed with a synthetic
// maximal sequence, since visibility was already baked into the cache key,
// so r must not carry a visibility filter.
//
// Returns whether the cache answered the lookup.
func ReplayFromCache(c cache.Cache, key []byte, r *Resolver, m *metrics.Metrics) bool {
	h := c.Lookup(key)
	if h == nil {
		m.RecordRowCacheMiss()
		return false
	}
	defer c.Release(h)

	log := h.Value()
	for len(log) > 0 {
		t := base.ValueType(log[0])
		value, rest, err := base.GetLengthPrefixed(log[1:])
		if err != nil {
			panic("lookup: undecodable replay log in row cache")
		}
		log = rest
		if !r.SaveValue(base.ParsedInternalKey{
			UserKey:  r.UserKey(),
			Sequence: base.MaxSequenceNumber,
			Type:     t,
		}, value) {
			break
		}
	}
	m.RecordRowCacheHit()
	return true
}
