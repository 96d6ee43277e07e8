package store

import "errors"

var (
	// ErrWrongType is returned whenever an operation targets a key whose
	// stored value is not the type the operation expects.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

	// ErrNotInteger mirrors INCR/DECR/WAIT's error on non-numeric content.
	ErrNotInteger = errors.New("ERR value is not an integer or out of range")

	ErrNotFloat = errors.New("ERR value is not a valid float")

	// ErrNoSuchKey covers operations (LSET, ...) that require the key to
	// already exist.
	ErrNoSuchKey = errors.New("ERR no such key")

	ErrIndexOutOfRange = errors.New("ERR index out of range")

	ErrSyntax = errors.New("ERR syntax error")

	// Stream ID errors, string text matches spec.md §3.2/§7.
	ErrStreamIDTooSmall = errors.New("ERR The ID specified in XADD is equal or smaller than the target stream top item")
	ErrStreamIDInvalid  = errors.New("ERR The ID specified in XADD must be greater than 0-0")
)
