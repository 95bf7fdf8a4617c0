package base

import "fmt"

// ValueType tags what kind of record an internal key carries. The set is
// closed; the byte values are part of the replay-log wire format and must
// not change.
type ValueType byte

const (
	// TypeDeletion is a point tombstone.
	TypeDeletion ValueType = 0x0
	// TypeValue is a plain value record.
	TypeValue ValueType = 0x1
	// TypeMerge is a merge operand.
	TypeMerge ValueType = 0x2
	// TypeSingleDeletion is a tombstone that cancels exactly one older write.
	TypeSingleDeletion ValueType = 0x7
	// TypeRangeDeletion is a range tombstone. The resolver also uses it as
	// the effective type of a record masked by a newer covering tombstone.
	TypeRangeDeletion ValueType = 0xF
	// TypeValueIndex is a value stored indirectly; the separation
	// collaborator translates it to TypeValue before resolution.
	TypeValueIndex ValueType = 0x16
	// TypeMergeIndex is a merge operand stored indirectly.
	TypeMergeIndex ValueType = 0x17

	// TypeSeek is the sentinel packed into lookup keys. It is larger than
	// every real type, so at a fixed sequence a lookup key sorts ahead of
	// all records written at that sequence.
	TypeSeek ValueType = 0xFF
)

// String returns the human-readable name of the type.
func (t ValueType) String() string {
	switch t {
	case TypeDeletion:
		return "deletion"
	case TypeValue:
		return "value"
	case TypeMerge:
		return "merge"
	case TypeSingleDeletion:
		return "single-deletion"
	case TypeRangeDeletion:
		return "range-deletion"
	case TypeValueIndex:
		return "value-index"
	case TypeMergeIndex:
		return "merge-index"
	case TypeSeek:
		return "seek"
	}
	return fmt.Sprintf("unknown(%#x)", byte(t))
}

// SequenceNumber orders writes globally. Only the low 56 bits are usable;
// the top byte of the packed representation holds the value type.
type SequenceNumber uint64

// MaxSequenceNumber is the largest representable sequence number.
const MaxSequenceNumber SequenceNumber = (1 << 56) - 1

// PackSequenceAndType packs a sequence number and value type into the
// fixed64 trailer of an internal key.
func PackSequenceAndType(seq SequenceNumber, t ValueType) uint64 {
	return uint64(seq)<<8 | uint64(t)
}

// UnpackSequenceAndType splits a packed trailer back into its parts.
func UnpackSequenceAndType(packed uint64) (SequenceNumber, ValueType) {
	return SequenceNumber(packed >> 8), ValueType(packed & 0xFF)
}

// ParsedInternalKey is the decoded form of an internal key.
type ParsedInternalKey struct {
	UserKey  []byte
	Sequence SequenceNumber
	Type     ValueType
}

func (k ParsedInternalKey) String() string {
	return fmt.Sprintf("%q@%d#%s", k.UserKey, k.Sequence, k.Type)
}
