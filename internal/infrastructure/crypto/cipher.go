// Package crypto seals connection configuration before it is written to the database.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedPrefix marks values produced by XChaCha. Values without it are
// treated as plaintext so existing rows stay readable after a key is configured.
const sealedPrefix = "xc1:"

// ErrDecrypt is returned when a sealed value cannot be opened with the configured key
var ErrDecrypt = errors.New("crypto: cannot decrypt value")

// Cipher seals and opens opaque blobs
type Cipher interface {
	Seal(plaintext []byte) (string, error)
	Open(value string) ([]byte, error)
}

// New returns an XChaCha20-Poly1305 cipher for key, or a plaintext
// passthrough when key is empty. The key is 32 raw bytes or 64 hex characters.
func New(key string) (Cipher, error) {
	if key == "" {
		return Plaintext{}, nil
	}
	return NewXChaCha(key)
}

// XChaCha seals with XChaCha20-Poly1305 using a random 24-byte nonce per value
type XChaCha struct {
	aead cipher.AEAD
}

// NewXChaCha creates an XChaCha cipher from a 32-byte key
func NewXChaCha(key string) (*XChaCha, error) {
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: init cipher: %w", err)
	}
	return &XChaCha{aead: aead}, nil
}

// Seal encrypts plaintext into a prefixed base64 string
func (x *XChaCha) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, x.aead.NonceSize(), x.aead.NonceSize()+len(plaintext)+x.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}
	sealed := x.aead.Seal(nonce, nonce, plaintext, nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Unprefixed values are returned as-is.
func (x *XChaCha) Open(value string) ([]byte, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return []byte(value), nil
	}
	sealed, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	ns := x.aead.NonceSize()
	if len(sealed) < ns+x.aead.Overhead() {
		return nil, fmt.Errorf("%w: value too short", ErrDecrypt)
	}
	plain, err := x.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

// Plaintext stores values unchanged
type Plaintext struct{}

func (Plaintext) Seal(plaintext []byte) (string, error) { return string(plaintext), nil }

// Open refuses sealed values, since no key is available to read them.
func (Plaintext) Open(value string) ([]byte, error) {
	if strings.HasPrefix(value, sealedPrefix) {
		return nil, fmt.Errorf("%w: value is encrypted but no key is configured", ErrDecrypt)
	}
	return []byte(value), nil
}

func decodeKey(key string) ([]byte, error) {
	if len(key) == 2*chacha20poly1305.KeySize {
		if raw, err := hex.DecodeString(key); err == nil {
			return raw, nil
		}
	}
	if len(key) == chacha20poly1305.KeySize {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("crypto: key must be %d bytes or %d hex characters", chacha20poly1305.KeySize, 2*chacha20poly1305.KeySize)
}
