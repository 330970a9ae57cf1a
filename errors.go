package mtkv

import "errors"

var (
	// ErrClosed indicates that the DB has been closed.
	ErrClosed = errors.New("mtkv: db is closed")
	// ErrOutdatedTimestamp indicates a SET/DEL with a timestamp
	// strictly older than the key's current record.
	ErrOutdatedTimestamp = errors.New("mtkv: outdated timestamp")
	// ErrKeyNotFound indicates a GET or DEL against a key that is
	// not present (or, for DEL, present but outdated — the store
	// doesn't distinguish the two beyond this single error, matching
	// the wire protocol's single ERROR string for DEL).
	ErrKeyNotFound = errors.New("mtkv: key not found or outdated timestamp")
)
