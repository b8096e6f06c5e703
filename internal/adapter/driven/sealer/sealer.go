// Package sealer encrypts session credentials at rest with AES-256-GCM.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Sealer seals and opens short secrets. A Sealer built with a nil key
// returns driven.ErrEncryptionKeyNotSet from every operation.
type Sealer struct {
	gcm cipher.AEAD
}

// New creates a Sealer. key must be 32 bytes for AES-256-GCM, or nil.
func New(key []byte) (*Sealer, error) {
	if key == nil {
		return &Sealer{}, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Sealer{gcm: gcm}, nil
}

// Seal encrypts plaintext and returns a base64 string containing the nonce
// prepended to the ciphertext. additional binds the ciphertext to a context
// (the session digest) so a sealed value cannot be replayed under another key.
func (s *Sealer) Seal(plaintext, additional string) (string, error) {
	if s.gcm == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := s.gcm.Seal(nonce, nonce, []byte(plaintext), []byte(additional))
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal with the same additional data.
func (s *Sealer) Open(encoded, additional string) (string, error) {
	if s.gcm == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, []byte(additional))
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

// Digest returns the hex SHA-256 of a session id. Stores key records by the
// digest so a leaked table does not hand out live session ids.
func Digest(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}
