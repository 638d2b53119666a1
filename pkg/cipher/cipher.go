// Package cipher implements the two payload encryption schemes used by the
// protocol: V1 (AES-128-ECB with PKCS#7-like padding) and V2 (AES-128-GCM
// with a fixed nonce and AAD). Both operate on the JSON bytes of an inner
// packet and are selected per envelope by the session's CipherSpec.
package cipher

// Spec names a cipher scheme a device family uses.
type Spec int

const (
	// V1 is AES-128-ECB with PKCS#7-like padding, used by older device
	// firmware for scan, bind, and session traffic.
	V1 Spec = iota
	// V2 is AES-128-GCM with a fixed nonce and AAD, used by newer
	// firmware. Responses carry an authentication tag alongside the
	// ciphertext.
	V2
)

// String implements fmt.Stringer.
func (s Spec) String() string {
	switch s {
	case V1:
		return "V1"
	case V2:
		return "V2"
	default:
		return "unknown"
	}
}

// GenericKeyV1 is the well-known AES-128 key used to encrypt scan and bind
// payloads under V1 before a session key has been established.
const GenericKeyV1 = "a3K8Bx%2r8Y7#xDh"

// GenericKeyV2 is the V2 analogue of GenericKeyV1.
const GenericKeyV2 = "{yxAHAY_Lm6pbC/<"

// Cipher encrypts and decrypts the inner JSON payload carried in an
// envelope's pack field. Encrypt returns the base64-encoded ciphertext and,
// for schemes that produce one, a base64-encoded authentication tag.
// Decrypt accepts the ciphertext and tag (tag is ignored by schemes that
// don't use one) and returns the recovered JSON bytes.
type Cipher interface {
	Encrypt(plaintext []byte) (ciphertextB64 string, tagB64 string, err error)
	Decrypt(ciphertextB64 string, tagB64 string) (plaintext []byte, err error)
}

// New builds a Cipher for spec under key (exactly 16 bytes).
func New(spec Spec, key []byte) (Cipher, error) {
	if len(key) != 16 {
		return nil, ErrInvalidKeySize
	}
	switch spec {
	case V2:
		return newGCMCipher(key)
	default:
		return newECBCipher(key)
	}
}

// NewGeneric builds the well-known generic-key cipher for spec, used to
// encrypt scan and bind traffic before a device has a session key.
func NewGeneric(spec Spec) Cipher {
	var key string
	if spec == V2 {
		key = GenericKeyV2
	} else {
		key = GenericKeyV1
	}
	c, err := New(spec, []byte(key))
	if err != nil {
		// The generic keys are fixed 16-byte constants; this cannot happen.
		panic(err)
	}
	return c
}
