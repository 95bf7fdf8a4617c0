package base

import "errors"

var (
	// ErrBadRecord is returned when an encoded internal key or bucket
	// record cannot be decoded.
	ErrBadRecord = errors.New("malformed record encoding")

	// ErrCorruptMerge is returned when the merge operator fails to compose
	// a final value; the affected lookup reports corruption, not absence.
	ErrCorruptMerge = errors.New("merge operator failed")
)
