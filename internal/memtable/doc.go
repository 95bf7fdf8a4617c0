// Package memtable implements the in-memory index holding not-yet-flushed
// writes. The one representation provided, registered as "prefix_hash", is
// an array of hash-addressed skip-list buckets: the shard for a key is a
// murmur hash of the transformed (prefix) form of its user key, so all keys
// sharing a prefix land in one independently-ordered bucket.
//
// Sharding sacrifices global order. Point and prefix reads stay cheap;
// full-order iteration exists only as an O(total entries) escape hatch that
// merges every bucket into a throwaway snapshot.
package memtable
