package envelope

import "errors"

// Envelope and protocol errors.
var (
	// ErrMissingPack is returned unwrapping an outer frame whose t claims a
	// payload ("pack") but the field is empty.
	ErrMissingPack = errors.New("envelope: missing pack field")
	// ErrMissingInnerKind is returned when a decrypted inner object has no
	// "t" field, or it isn't a string.
	ErrMissingInnerKind = errors.New("envelope: inner packet missing t field")
	// ErrColsDatMismatch is returned when a dat response's cols and dat
	// arrays differ in length and therefore can't be zipped.
	ErrColsDatMismatch = errors.New("envelope: cols/dat length mismatch")
)
