package base

import "encoding/binary"

const internalKeyTrailerLen = 8

// EncodeInternalKey appends the encoded internal key for (userKey, seq, t)
// to dst and returns the extended slice.
func EncodeInternalKey(dst, userKey []byte, seq SequenceNumber, t ValueType) []byte {
	dst = append(dst, userKey...)
	var trailer [internalKeyTrailerLen]byte
	binary.LittleEndian.PutUint64(trailer[:], PackSequenceAndType(seq, t))
	return append(dst, trailer[:]...)
}

// ParseInternalKey decodes an encoded internal key.
func ParseInternalKey(ikey []byte) (ParsedInternalKey, error) {
	if len(ikey) < internalKeyTrailerLen {
		return ParsedInternalKey{}, ErrBadRecord
	}
	n := len(ikey) - internalKeyTrailerLen
	packed := binary.LittleEndian.Uint64(ikey[n:])
	seq, t := UnpackSequenceAndType(packed)
	return ParsedInternalKey{UserKey: ikey[:n], Sequence: seq, Type: t}, nil
}

// ExtractUserKey strips the packed trailer from an encoded internal key.
// It panics if the key is too short; callers hold encoded keys that came
// from EncodeInternalKey or a bucket, so a short key is a caller bug.
func ExtractUserKey(ikey []byte) []byte {
	if len(ikey) < internalKeyTrailerLen {
		panic("base: internal key shorter than its trailer")
	}
	return ikey[:len(ikey)-internalKeyTrailerLen]
}

// InternalKeySeqAndType returns the packed trailer of an encoded internal key.
func InternalKeySeqAndType(ikey []byte) uint64 {
	if len(ikey) < internalKeyTrailerLen {
		panic("base: internal key shorter than its trailer")
	}
	return binary.LittleEndian.Uint64(ikey[len(ikey)-internalKeyTrailerLen:])
}

// EncodeRecord appends a full bucket record to dst:
//
//	uvarint(len ikey) | ikey | uvarint(len value) | value
//
// This is the only layout buckets store; keys and values travel together in
// one arena allocation.
func EncodeRecord(dst []byte, key ParsedInternalKey, value []byte) []byte {
	ikeyLen := len(key.UserKey) + internalKeyTrailerLen
	dst = binary.AppendUvarint(dst, uint64(ikeyLen))
	dst = EncodeInternalKey(dst, key.UserKey, key.Sequence, key.Type)
	dst = binary.AppendUvarint(dst, uint64(len(value)))
	return append(dst, value...)
}

// GetLengthPrefixed decodes one uvarint-prefixed slice from b and returns
// the payload and the remainder.
func GetLengthPrefixed(b []byte) (payload, rest []byte, err error) {
	n, w := binary.Uvarint(b)
	if w <= 0 || uint64(len(b)-w) < n {
		return nil, nil, ErrBadRecord
	}
	return b[w : w+int(n)], b[w+int(n):], nil
}

// DecodeRecordKey returns the encoded internal key portion of a record.
func DecodeRecordKey(record []byte) ([]byte, error) {
	ikey, _, err := GetLengthPrefixed(record)
	return ikey, err
}

// DecodeRecordValue returns the value portion of a record.
func DecodeRecordValue(record []byte) ([]byte, error) {
	_, rest, err := GetLengthPrefixed(record)
	if err != nil {
		return nil, err
	}
	value, _, err := GetLengthPrefixed(rest)
	return value, err
}

// LookupKey bundles the three encodings a point lookup needs: the
// uvarint-prefixed memtable seek key, the bare internal key, and the user
// key, all views over a single buffer.
type LookupKey struct {
	data      []byte
	ikeyStart int
}

// NewLookupKey builds a lookup key for reading userKey as of seq.
func NewLookupKey(userKey []byte, seq SequenceNumber) *LookupKey {
	ikeyLen := len(userKey) + internalKeyTrailerLen
	data := binary.AppendUvarint(make([]byte, 0, ikeyLen+binary.MaxVarintLen32), uint64(ikeyLen))
	start := len(data)
	data = EncodeInternalKey(data, userKey, seq, TypeSeek)
	return &LookupKey{data: data, ikeyStart: start}
}

// MemtableKey is the uvarint-prefixed form buckets seek with.
func (lk *LookupKey) MemtableKey() []byte { return lk.data }

// InternalKey is the encoded internal key form.
func (lk *LookupKey) InternalKey() []byte { return lk.data[lk.ikeyStart:] }

// UserKey is the raw user key.
func (lk *LookupKey) UserKey() []byte {
	return lk.data[lk.ikeyStart : len(lk.data)-internalKeyTrailerLen]
}

// Sequence returns the snapshot sequence the lookup was built with.
func (lk *LookupKey) Sequence() SequenceNumber {
	seq, _ := UnpackSequenceAndType(InternalKeySeqAndType(lk.InternalKey()))
	return seq
}
