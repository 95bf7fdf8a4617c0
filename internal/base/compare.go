package base

import "bytes"

// Comparer defines a total order over user keys.
type Comparer interface {
	// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
	// than b.
	Compare(a, b []byte) int
	// Name identifies the ordering; mixing orderings across an index is a
	// caller bug.
	Name() string
}

type bytewiseComparer struct{}

func (bytewiseComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }
func (bytewiseComparer) Name() string            { return "quarry.BytewiseComparer" }

// DefaultComparer orders user keys lexicographically by bytes.
var DefaultComparer Comparer = bytewiseComparer{}

// InternalKeyComparator orders encoded internal keys: user key ascending by
// the wrapped Comparer, then packed (sequence, type) descending so newer
// records sort first.
type InternalKeyComparator struct {
	user Comparer
}

// NewInternalKeyComparator wraps a user-key comparer.
func NewInternalKeyComparator(user Comparer) *InternalKeyComparator {
	return &InternalKeyComparator{user: user}
}

// UserComparer returns the wrapped user-key comparer.
func (c *InternalKeyComparator) UserComparer() Comparer { return c.user }

// Compare orders two encoded internal keys.
func (c *InternalKeyComparator) Compare(a, b []byte) int {
	if r := c.user.Compare(ExtractUserKey(a), ExtractUserKey(b)); r != 0 {
		return r
	}
	// Equal user keys: larger packed (seq, type) first.
	an, bn := InternalKeySeqAndType(a), InternalKeySeqAndType(b)
	switch {
	case an > bn:
		return -1
	case an < bn:
		return 1
	}
	return 0
}

// CompareRecords orders two uvarint-prefixed bucket records by their
// internal keys. Records inside a bucket are well formed; a record whose
// prefix cannot be decoded is a corruption of arena memory and panics.
func (c *InternalKeyComparator) CompareRecords(a, b []byte) int {
	ak, err := DecodeRecordKey(a)
	if err != nil {
		panic("base: undecodable bucket record")
	}
	bk, err := DecodeRecordKey(b)
	if err != nil {
		panic("base: undecodable bucket record")
	}
	return c.Compare(ak, bk)
}
