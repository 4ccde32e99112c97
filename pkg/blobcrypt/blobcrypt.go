// Package blobcrypt is a Go port of the original's blob_encryption.rs: a
// ChaCha20-Poly1305 AEAD codec over a 32-byte key, framing ciphertext as
// nonce(12) || ciphertext_with_tag.
package blobcrypt

import (
	"crypto/rand"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/harbackup/har/pkg/harerr"
)

// Codec encrypts and decrypts blobs under one symmetric key. It is
// stateless and cheap to copy by value, matching the original's #[derive
// (Clone)] EncryptWithChacha (it holds only the key).
type Codec struct {
	key []byte
}

// NewFromKeyFile reads a key from path; the file's content must be exactly
// chacha20poly1305.KeySize (32) bytes, else BadKey.
func NewFromKeyFile(path string) (Codec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Codec{}, harerr.Wrap(harerr.Io, "opening key file", err)
	}
	if len(content) != chacha20poly1305.KeySize {
		return Codec{}, harerr.New(harerr.BadKey, "key file content does not have the right length for a key")
	}
	return Codec{key: content}, nil
}

// NewFromKey wraps an in-memory key, used by tests and CreateKey callers
// that don't round-trip through a file.
func NewFromKey(key []byte) (Codec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return Codec{}, harerr.New(harerr.BadKey, "key content does not have the right length for a key")
	}
	out := make([]byte, len(key))
	copy(out, key)
	return Codec{key: out}, nil
}

// CreateKey generates a fresh random 32-byte ChaCha20-Poly1305 key.
func CreateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, harerr.Wrap(harerr.Io, "generating key", err)
	}
	return key, nil
}

// Encrypt returns nonce || ciphertext_with_tag for data under c's key.
func (c Codec) Encrypt(data []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, harerr.Wrap(harerr.BadKey, "constructing cipher", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, harerr.Wrap(harerr.Io, "generating nonce", err)
	}
	out := make([]byte, 0, len(nonce)+len(data)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, data, nil)
	return out, nil
}

// Decrypt parses the leading nonce and authenticates+decrypts the
// remainder. Fails with Truncated if data is shorter than nonce+1 byte,
// Auth if the tag does not verify.
func (c Codec) Decrypt(data []byte) ([]byte, error) {
	if len(data) < chacha20poly1305.NonceSize {
		return nil, harerr.New(harerr.Truncated, "not enough bytes in data to contain a nonce")
	}
	if len(data) < chacha20poly1305.NonceSize+1 {
		return nil, harerr.New(harerr.Truncated, "data is just the nonce")
	}
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, harerr.Wrap(harerr.BadKey, "constructing cipher", err)
	}
	nonce := data[:chacha20poly1305.NonceSize]
	ciphertext := data[chacha20poly1305.NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, harerr.Wrap(harerr.Auth, "decrypting blob", err)
	}
	return plaintext, nil
}
