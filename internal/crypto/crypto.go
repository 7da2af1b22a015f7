// Package crypto provides envelope encryption for secrets stored at rest.
//
// Serialized values have the form hex(salt):hex(iv):hex(tag):hex(ciphertext).
// Each value carries its own salt, so the AES key is re-derived per value
// from the configured secret with PBKDF2-SHA256.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mailsmithapp/mailsmith/internal/errs"
)

const (
	// MinSecretLength is the shortest secret accepted for key derivation.
	MinSecretLength = 32

	saltSize   = 64
	ivSize     = 16
	tagSize    = 16
	keySize    = 32
	iterations = 100_000

	segmentCount = 4
)

// Encryptor defines the contract for encrypting/decrypting sensitive values.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(serialized string) (string, error)
}

type pbkdf2Encryptor struct {
	secret []byte
	random io.Reader
}

// NewEncryptor creates an AES-256-GCM encryptor keyed from secret.
func NewEncryptor(secret string) (Encryptor, error) {
	if err := checkSecret(secret); err != nil {
		return nil, err
	}
	return &pbkdf2Encryptor{secret: []byte(secret), random: rand.Reader}, nil
}

func checkSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: encryption secret is required", errs.ErrConfiguration)
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("%w: encryption secret must be at least %d characters", errs.ErrConfiguration, MinSecretLength)
	}
	return nil
}

// Encrypt seals plaintext under a fresh salt and IV.
func (e *pbkdf2Encryptor) Encrypt(plaintext string) (string, error) {
	if err := checkSecret(string(e.secret)); err != nil {
		return "", err
	}

	random := e.random
	if random == nil {
		random = rand.Reader
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt reverses Encrypt. Any malformed input, wrong secret, or tampering
// yields errs.ErrDecryption.
func (e *pbkdf2Encryptor) Decrypt(serialized string) (string, error) {
	if err := checkSecret(string(e.secret)); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}

	parts := strings.Split(serialized, ":")
	if len(parts) != segmentCount {
		return "", fmt.Errorf("%w: expected %d segments, got %d", errs.ErrDecryption, segmentCount, len(parts))
	}

	decoded := make([][]byte, segmentCount)
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil {
			return "", fmt.Errorf("%w: segment %d is not hex", errs.ErrDecryption, i)
		}
		decoded[i] = b
	}
	salt, iv, tag, ciphertext := decoded[0], decoded[1], decoded[2], decoded[3]

	if len(iv) != ivSize || len(tag) != tagSize || len(salt) == 0 {
		return "", fmt.Errorf("%w: malformed envelope", errs.ErrDecryption)
	}

	aead, err := e.aead(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication tag mismatch", errs.ErrDecryption)
	}
	return string(plaintext), nil
}

func (e *pbkdf2Encryptor) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.secret, salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// IsEncrypted reports whether value has the envelope shape: exactly four
// non-empty colon-separated segments. It does not validate hex or decrypt.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != segmentCount {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}
