package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
)

// gcmNonce is the fixed 12-byte nonce every V2 payload uses. Reusing a
// nonce is normally a fatal GCM mistake, but the wire format fixes it, so
// it is used as is under the well-known generic key and under session keys
// alike; faithfully reproducing the wire format takes precedence.
var gcmNonce = []byte{0x54, 0x40, 0x78, 0x44, 0x49, 0x67, 0x5a, 0x51, 0x6c, 0x5e, 0x63, 0x13}

// gcmAAD is the fixed additional authenticated data every V2 payload uses.
var gcmAAD = []byte("qualcomm-test")

// gcmCipher implements V2: AES-128-GCM with the fixed nonce and AAD above.
type gcmCipher struct {
	aead cipher.AEAD
}

func newGCMCipher(key []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &gcmCipher{aead: aead}, nil
}

func (c *gcmCipher) Encrypt(plaintext []byte) (string, string, error) {
	sealed := c.aead.Seal(nil, gcmNonce, plaintext, gcmAAD)
	tagLen := c.aead.Overhead()
	ciphertext := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]
	return base64.StdEncoding.EncodeToString(ciphertext), base64.StdEncoding.EncodeToString(tag), nil
}

func (c *gcmCipher) Decrypt(ciphertextB64, tagB64 string) ([]byte, error) {
	if tagB64 == "" {
		return nil, ErrMissingTag
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, ErrDecryptionFailure
	}
	tag, err := base64.StdEncoding.DecodeString(tagB64)
	if err != nil {
		return nil, ErrDecryptionFailure
	}

	sealed := append(append([]byte(nil), ciphertext...), tag...)
	plaintext, err := c.aead.Open(nil, gcmNonce, sealed, gcmAAD)
	if err != nil {
		return nil, ErrDecryptionFailure
	}

	return truncateAfterLastBrace(plaintext)
}
