// Package base defines the data model shared by the lookup path: internal
// keys, sequence/type packing, the encoded record layout stored in buckets,
// key comparators, prefix transforms, and the interfaces of the pluggable
// collaborators (merge operator, visibility filter, value separation).
//
// An internal key is (user key, sequence number, value type). Ordering is
// user key ascending, then packed (sequence, type) descending, so the newest
// version of a key sorts first. The value type participates only in the
// packed tie-break; it is metadata, not an ordering key of its own.
package base
