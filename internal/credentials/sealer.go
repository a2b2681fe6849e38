package credentials

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealedPrefix marks an encrypted blob.
var sealedPrefix = []byte("v1:")

const hkdfInfo = "medigenius credentials v1"

// Sealer encrypts credential blobs with XChaCha20-Poly1305. The owner is
// bound as additional data, so a blob copied to another owner's key does
// not open.
type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit key from secret with HKDF-SHA256.
func NewSealer(secret string) (*Sealer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("credentials: empty secret")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("credentials: derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext for owner and returns "v1:" + base64(nonce|ciphertext).
func (s *Sealer) Seal(plaintext []byte, owner string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, []byte(owner))

	out := make([]byte, len(sealedPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	copy(out, sealedPrefix)
	base64.StdEncoding.Encode(out[len(sealedPrefix):], sealed)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(blob []byte, owner string) ([]byte, error) {
	if !isSealed(blob) {
		return nil, errors.New("credentials: blob is not sealed")
	}
	raw, err := base64.StdEncoding.DecodeString(string(blob[len(sealedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("credentials: decode: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize() {
		return nil, errors.New("credentials: blob too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, []byte(owner))
}

func isSealed(blob []byte) bool {
	return bytes.HasPrefix(blob, sealedPrefix)
}
