package memtable

import "errors"

var (
	// ErrUnknownRep is returned when no representation is registered under
	// the requested name.
	ErrUnknownRep = errors.New("unknown memtable representation")

	// ErrBadOption is returned when a recognized construction option fails
	// to parse.
	ErrBadOption = errors.New("invalid memtable option")
)
