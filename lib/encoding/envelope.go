// Package encoding provides the token primitives for edwa: structural
// field-array serialization, DEFLATE+base64url packing, HMAC signing
// with payload binding, and AES-256-GCM sealing.
package encoding

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// Sentinel errors for token failures. Callers typically map all of
// these to a single tampering error; the distinction matters only for
// diagnostics.
var (
	ErrInvalidFormat    = errors.New("encoding: invalid token format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
	ErrDecryptFailed    = errors.New("encoding: decryption failed")
)

// macLen truncates HMAC-SHA256 output to 128 bits, which keeps tokens
// short while remaining far beyond brute-force reach.
const macLen = 16

// Envelope authenticates and optionally encrypts token payloads.
// It supports two modes:
//   - Sign/Verify: HMAC-SHA256 over the packed payload plus a binding
//     string - visible but tamper-proof
//   - Seal/Open: AES-256-GCM - fully opaque
type Envelope struct {
	key []byte
	gcm cipher.AEAD
}

// NewEnvelope creates an envelope with the given secret key.
// Keys shorter than 32 bytes are derived up to 32 via SHA-256.
func NewEnvelope(key []byte) (*Envelope, error) {
	if len(key) == 0 {
		return nil, errors.New("encoding: empty secret key")
	}
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Envelope{key: key, gcm: gcm}, nil
}

// Deflate compresses raw bytes with zlib at the fastest level. Token
// payloads are small and highly repetitive (nested page records), so
// the fastest level captures nearly all of the win.
func Deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Inflate reverses Deflate. A corrupted stream returns
// ErrInvalidFormat.
func Inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, ErrInvalidFormat
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	return raw, nil
}

// Pack compresses raw bytes and encodes them with the URL-safe base64
// alphabet, unpadded.
func Pack(raw []byte) (string, error) {
	compressed, err := Deflate(raw)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(compressed), nil
}

// Unpack reverses Pack. Bad base64 or a corrupted compressed stream
// returns ErrInvalidFormat.
func Unpack(segment string) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	return Inflate(compressed)
}

// Sign packs the payload and returns "b64(mac).b64(payload)", where
// the MAC covers both the packed payload segment and the binding
// string. Binding an action token to its page token's exact text is
// what defeats mix-and-match replay.
func (e *Envelope) Sign(payload []byte, binding string) (string, error) {
	segment, err := Pack(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, e.key)
	mac.Write([]byte(segment))
	mac.Write([]byte("."))
	mac.Write([]byte(binding))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:macLen])
	return sig + "." + segment, nil
}

// Verify checks a signed token against the binding string and returns
// the payload. The signature is verified before any structural
// processing of the payload segment.
func (e *Envelope) Verify(token, binding string) ([]byte, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	mac := hmac.New(sha256.New, e.key)
	mac.Write([]byte(parts[1]))
	mac.Write([]byte("."))
	mac.Write([]byte(binding))
	expected := mac.Sum(nil)[:macLen]

	if !hmac.Equal(sig, expected) {
		return nil, ErrSignatureInvalid
	}

	return Unpack(parts[1])
}

// Seal compresses and encrypts the payload with AES-256-GCM and
// returns a single opaque base64url segment.
func (e *Envelope) Seal(payload []byte) (string, error) {
	compressed, err := Deflate(payload)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ciphertext := e.gcm.Seal(nonce, nonce, compressed, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a sealed token and returns the payload. GCM
// authenticates before returning plaintext, so structural decode of
// unauthenticated bytes cannot occur.
func (e *Envelope) Open(token string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	if len(ciphertext) < e.gcm.NonceSize() {
		return nil, ErrInvalidFormat
	}

	nonce := ciphertext[:e.gcm.NonceSize()]
	compressed, err := e.gcm.Open(nil, nonce, ciphertext[e.gcm.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return Inflate(compressed)
}
