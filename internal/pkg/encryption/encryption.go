// Package encryption seals tenant credential bundles and cached tenant
// rows with AES-256-GCM. Ciphertext is what crosses the store and cache
// boundaries; plaintext secrets live only in memory.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Encryptor seals and opens secrets. Ciphertext is base64 so it can sit in
// string fields of stored documents.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// AESEncryptor implements Encryptor with AES-256-GCM. A fresh random nonce
// is prepended to every ciphertext, so sealing the same plaintext twice
// yields different ciphertexts.
type AESEncryptor struct {
	aead cipher.AEAD
}

// NewAESEncryptor builds an encryptor from SECRETS_ENCRYPTION_KEY. The key
// may be 32 raw bytes or the base64 encoding of 32 bytes; a key of any
// other length is rejected rather than padded, since a silently derived key
// would strand every stored credential on rotation.
func NewAESEncryptor(key string) (*AESEncryptor, error) {
	material, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		material = []byte(key)
	}
	if len(material) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(material))
	}

	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESEncryptor{aead: aead}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (e *AESEncryptor) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens base64(nonce || ciphertext). Tampered or foreign-key
// ciphertext fails GCM authentication.
func (e *AESEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(sealed) < e.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, body := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// EncryptString seals a string secret.
func (e *AESEncryptor) EncryptString(plaintext string) (string, error) {
	return e.Encrypt([]byte(plaintext))
}

// DecryptString opens a string secret.
func (e *AESEncryptor) DecryptString(ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh random AES-256 key, base64-encoded for use
// as SECRETS_ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// NoOpEncryptor passes secrets through base64 without sealing them. Used
// when no encryption key is configured, which main logs loudly about.
type NoOpEncryptor struct{}

// NewNoOpEncryptor creates a pass-through encryptor.
func NewNoOpEncryptor() *NoOpEncryptor {
	return &NoOpEncryptor{}
}

func (e *NoOpEncryptor) Encrypt(plaintext []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plaintext), nil
}

func (e *NoOpEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(ciphertext)
}

func (e *NoOpEncryptor) EncryptString(plaintext string) (string, error) {
	return e.Encrypt([]byte(plaintext))
}

func (e *NoOpEncryptor) DecryptString(ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
