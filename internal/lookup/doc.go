// Package lookup turns streams of internal-key candidates into the single
// logically-correct answer for a user key under snapshot isolation.
//
// The Resolver consumes candidates for one user key, newest sequence first,
// and lands in exactly one of: found, deleted, not found, or corrupt, while
// accumulating merge operands along the way. A lookup may optionally tee
// every record the resolver consumes into a replay log; the row-cache path
// stores that log and later replays it through a fresh resolver to
// reproduce the answer without touching the underlying storage.
package lookup
