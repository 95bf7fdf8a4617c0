package base

// MergeOperator composes merge operands into a final value. Implementations
// are supplied by the embedding engine; the lookup core only invokes them.
type MergeOperator interface {
	// FullMerge combines an optional base value with the accumulated
	// operands and returns the merged result. Operands are ordered
	// newest-first. hasBase is false when the operand chain ended at a
	// tombstone or the start of history.
	FullMerge(userKey []byte, base []byte, hasBase bool, operands [][]byte) ([]byte, error)
	// ShouldMerge reports whether the operands gathered so far
	// (newest-first) are already sufficient, letting the resolver stop
	// scanning and merge without a base value.
	ShouldMerge(operands [][]byte) bool
	Name() string
}

// VisibilityFilter decides whether a record written at seq is visible to
// the current lookup. Snapshot isolation and read-your-writes filtering
// plug in here.
type VisibilityFilter interface {
	Visible(seq SequenceNumber) bool
}

// VisibleUpTo returns a filter admitting records at or below seq.
func VisibleUpTo(seq SequenceNumber) VisibilityFilter {
	return seqVisibility(seq)
}

type seqVisibility SequenceNumber

func (v seqVisibility) Visible(seq SequenceNumber) bool {
	return seq <= SequenceNumber(v)
}

// Separator translates indirectly-stored records (TypeValueIndex,
// TypeMergeIndex) into their combined direct form. handle is the stored
// indirection payload; the return is the materialized value.
type Separator interface {
	TransToCombined(userKey []byte, packedSeqType uint64, handle []byte) ([]byte, error)
}
