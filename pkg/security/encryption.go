package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
)

// Encryptor protects clinical text fields at rest.
type Encryptor interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

type aesEncryptor struct {
	gcm cipher.AEAD
}

// NewAESEncryptor creates an AES-GCM encryptor. The key must be 16,
// 24 or 32 bytes.
func NewAESEncryptor(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryption
	}

	return &aesEncryptor{gcm: gcm}, nil
}

func (a *aesEncryptor) EncryptString(plaintext string) (string, error) {
	nonce := make([]byte, a.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrEncryption
	}

	sealed := a.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (a *aesEncryptor) DecryptString(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryption
	}

	nonceSize := a.gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrDecryption
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plain, err := a.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryption
	}

	return string(plain), nil
}

// NoopEncryptor passes data through unchanged. Used when no
// encryption key is configured (development only).
type NoopEncryptor struct{}

func (NoopEncryptor) EncryptString(s string) (string, error) { return s, nil }
func (NoopEncryptor) DecryptString(s string) (string, error) { return s, nil }
