// Package vault encrypts OAuth tokens at rest with AES-256-GCM.
//
// Blob layout is base64(salt[64] || iv[16] || authTag[16] || ciphertext).
// The salt is random per call and currently unused by key derivation (the
// key comes straight from configuration) but is kept in the layout so key
// derivation can change later without a blob migration.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

const (
	keyLength     = 32
	saltLength    = 64
	ivLength      = 16
	authTagLength = 16
)

var (
	// ErrInvalidKey means the configured encryption key does not decode to
	// exactly 32 bytes. Fatal at startup; nothing can be stored or read.
	ErrInvalidKey = errors.New("vault: encryption key must be 32 bytes (64-char hex or base64)")

	// ErrIntegrity means authentication failed on decrypt: the blob was
	// tampered with or was written under a different key. Must propagate to
	// the caller; swallowing it would hide corruption or a key-rotation
	// mismatch.
	ErrIntegrity = errors.New("vault: ciphertext integrity check failed")

	// ErrMalformed means the blob is too short or not valid base64.
	ErrMalformed = errors.New("vault: malformed ciphertext blob")
)

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Vault performs symmetric encryption and decryption of credential strings.
// Safe for concurrent use.
type Vault struct {
	aead cipher.AEAD
}

// New derives the cipher once from the configured key string. The key is
// accepted as a 64-character hex string or a base64 string, and must decode
// to exactly 32 bytes.
func New(keyStr string) (*Vault, error) {
	key, err := decodeKey(keyStr)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	// 16-byte IVs for compatibility with blobs written by the legacy service.
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	return &Vault{aead: aead}, nil
}

func decodeKey(keyStr string) ([]byte, error) {
	if keyStr == "" {
		return nil, ErrInvalidKey
	}

	var key []byte
	if hexKeyPattern.MatchString(keyStr) {
		key, _ = hex.DecodeString(keyStr)
	} else {
		var err error
		key, err = base64.StdEncoding.DecodeString(keyStr)
		if err != nil {
			key, err = base64.RawStdEncoding.DecodeString(keyStr)
			if err != nil {
				return nil, ErrInvalidKey
			}
		}
	}

	if len(key) != keyLength {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Encrypt seals the plaintext and returns the base64 blob.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("vault: generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("vault: generate iv: %w", err)
	}

	// Seal appends the auth tag after the ciphertext; the blob layout wants
	// it in front, so split and reorder.
	sealed := v.aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-authTagLength]
	authTag := sealed[len(sealed)-authTagLength:]

	combined := make([]byte, 0, saltLength+ivLength+authTagLength+len(ciphertext))
	combined = append(combined, salt...)
	combined = append(combined, iv...)
	combined = append(combined, authTag...)
	combined = append(combined, ciphertext...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// Decrypt reverses Encrypt by fixed-offset slicing of the decoded blob.
// Returns ErrIntegrity if the auth tag does not verify.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(combined) < saltLength+ivLength+authTagLength {
		return "", ErrMalformed
	}

	iv := combined[saltLength : saltLength+ivLength]
	authTag := combined[saltLength+ivLength : saltLength+ivLength+authTagLength]
	ciphertext := combined[saltLength+ivLength+authTagLength:]

	// Reassemble into Go's ciphertext||tag order for Open.
	sealed := make([]byte, 0, len(ciphertext)+authTagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := v.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}
