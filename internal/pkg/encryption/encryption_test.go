package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/pkg/encryption"
)

func TestNewAESEncryptor_ValidKey(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)

	// Act
	enc, err := encryption.NewAESEncryptor(key)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestNewAESEncryptor_InvalidKeyLength(t *testing.T) {
	// Act
	enc, err := encryption.NewAESEncryptor("too-short")

	// Assert
	assert.Error(t, err)
	assert.Nil(t, enc)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestAESEncryptor_RoundTrip(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	plaintext := "fc-api-key-123456"

	// Act
	ciphertext, err := enc.EncryptString(plaintext)
	require.NoError(t, err)
	decrypted, err := enc.DecryptString(ciphertext)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
	assert.NotEqual(t, plaintext, ciphertext)
}

func TestAESEncryptor_UniqueCiphertexts(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	// Act
	first, err := enc.EncryptString("same-plaintext")
	require.NoError(t, err)
	second, err := enc.EncryptString("same-plaintext")
	require.NoError(t, err)

	// Assert: random nonce means identical plaintexts never collide
	assert.NotEqual(t, first, second)
}

func TestAESEncryptor_WrongKeyFails(t *testing.T) {
	// Arrange
	keyA, err := encryption.GenerateKey()
	require.NoError(t, err)
	keyB, err := encryption.GenerateKey()
	require.NoError(t, err)

	encA, err := encryption.NewAESEncryptor(keyA)
	require.NoError(t, err)
	encB, err := encryption.NewAESEncryptor(keyB)
	require.NoError(t, err)

	ciphertext, err := encA.EncryptString("secret")
	require.NoError(t, err)

	// Act
	_, err = encB.DecryptString(ciphertext)

	// Assert
	assert.Error(t, err)
}

func TestAESEncryptor_TamperedCiphertextFails(t *testing.T) {
	// Arrange
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	// Act
	_, err = enc.DecryptString("bm90LWEtcmVhbC1jaXBoZXJ0ZXh0LWJ1dC1sb25nLWVub3VnaA==")

	// Assert
	assert.Error(t, err)
}

func TestNoOpEncryptor_RoundTrip(t *testing.T) {
	// Arrange
	enc := encryption.NewNoOpEncryptor()

	// Act
	ciphertext, err := enc.EncryptString("plain")
	require.NoError(t, err)
	decrypted, err := enc.DecryptString(ciphertext)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "plain", decrypted)
}
