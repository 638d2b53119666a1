package cipher

import "errors"

// Cipher errors.
var (
	// ErrInvalidKeySize is returned when a key is not exactly 16 bytes.
	ErrInvalidKeySize = errors.New("cipher: key must be 16 bytes")
	// ErrDecryptionFailure covers any failure to recover the inner JSON
	// object: bad base64, block-cipher failure, GCM tag mismatch, or a
	// truncated result that still doesn't parse as JSON after trailing
	// bytes past the last '}' are discarded.
	ErrDecryptionFailure = errors.New("cipher: decryption failure")
	// ErrMissingTag is returned decrypting a V2 payload with no tag.
	ErrMissingTag = errors.New("cipher: missing authentication tag")
)
