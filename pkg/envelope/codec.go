package envelope

import (
	json "github.com/goccy/go-json"

	"github.com/climatelan/greelink/pkg/cipher"
)

// Wrap builds and serializes a request envelope addressed to mac.
//
// If inner is non-nil, it is merged under {"t": kind, "mac": mac}, JSON
// encoded, and encrypted under c; the result becomes pack (and tag, for
// ciphers that produce one). If inner is nil, the envelope carries no
// payload and t is the kind itself (used for the bare scan request).
// generic selects the outer i flag: true for scan/bind traffic encrypted
// under the well-known generic key, false for session traffic.
func Wrap(kind Kind, mac string, inner map[string]interface{}, generic bool, c cipher.Cipher) ([]byte, error) {
	env := Envelope{
		CID:  "app",
		UID:  0,
		TCID: mac,
	}
	if generic {
		env.I = 1
	}

	if inner == nil {
		env.T = string(kind)
		return json.Marshal(env)
	}

	env.T = "pack"
	merged := make(map[string]interface{}, len(inner)+2)
	merged["t"] = string(kind)
	merged["mac"] = mac
	for k, v := range inner {
		merged[k] = v
	}

	plaintext, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	packB64, tagB64, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	env.Pack = packB64
	env.Tag = tagB64

	return json.Marshal(env)
}

// Unwrap parses an outer frame, selects the cipher per the envelope's i
// flag (generic when i == 1, session otherwise), decrypts pack if present,
// and returns the inner packet's kind and field map. sessionCipher may be
// nil for callers that only ever receive generic-keyed traffic (e.g. a
// bind response, which itself delivers the session key).
func Unwrap(data []byte, genericCipher, sessionCipher cipher.Cipher) (Kind, map[string]interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}

	if env.Pack == "" {
		if env.T == "pack" {
			return "", nil, ErrMissingPack
		}
		return Kind(env.T), nil, nil
	}

	c := sessionCipher
	if env.I.Generic() {
		c = genericCipher
	}

	plaintext, err := c.Decrypt(env.Pack, env.Tag)
	if err != nil {
		return "", nil, err
	}

	var inner map[string]interface{}
	if err := json.Unmarshal(plaintext, &inner); err != nil {
		return "", nil, err
	}

	kind, ok := inner["t"].(string)
	if !ok {
		return "", nil, ErrMissingInnerKind
	}
	return Kind(kind), inner, nil
}
