// Package vault encrypts, decrypts and masks card numbers. Encryption is
// deterministic per key (same number and key always produce the same
// token), so token equality doubles as a uniqueness check without ever
// storing plaintext numbers.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cardvault/card-service/internal/apperrors"
)

const (
	cardNumberLength = 16
	maskChar         = "*"
)

// Vault performs AES-CBC card number encryption with PKCS#7 padding.
// The IV is derived from the key, which makes the cipher deterministic.
type Vault struct {
	key []byte
	iv  []byte
}

// New creates a vault for the given AES key (16, 24 or 32 bytes).
func New(key []byte) (*Vault, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes, got %d", len(key))
	}
	sum := sha256.Sum256(key)
	return &Vault{key: key, iv: sum[:aes.BlockSize]}, nil
}

// Encrypt encrypts a raw card number into a hex-encoded token. The input
// must be exactly 16 decimal digits.
func (v *Vault) Encrypt(rawNumber string) (string, error) {
	if !isCardNumber(rawNumber) {
		return "", apperrors.New(apperrors.KindValidation, "card number must be exactly 16 digits")
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", apperrors.Newf(apperrors.KindCrypto, "failed to create cipher: %v", err)
	}

	// PKCS#7 padding
	data := []byte(rawNumber)
	padding := aes.BlockSize - len(data)%aes.BlockSize
	for i := 0; i < padding; i++ {
		data = append(data, byte(padding))
	}

	ciphertext := make([]byte, len(data))
	mode := cipher.NewCBCEncrypter(block, v.iv)
	mode.CryptBlocks(ciphertext, data)

	return hex.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a hex-encoded token back into the raw card number.
func (v *Vault) Decrypt(token string) (string, error) {
	if len(token) == 0 {
		return "", apperrors.New(apperrors.KindCrypto, "encrypted card number is empty")
	}

	ciphertext, err := hex.DecodeString(token)
	if err != nil {
		return "", apperrors.Newf(apperrors.KindCrypto, "failed to decode card number token: %v", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", apperrors.Newf(apperrors.KindCrypto, "invalid ciphertext length: %d bytes", len(ciphertext))
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", apperrors.Newf(apperrors.KindCrypto, "failed to create cipher: %v", err)
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, v.iv)
	mode.CryptBlocks(plaintext, ciphertext)

	// Validate PKCS#7 padding
	padding := int(plaintext[len(plaintext)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(plaintext) {
		return "", apperrors.Newf(apperrors.KindCrypto, "invalid padding value: %d", padding)
	}
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if int(plaintext[i]) != padding {
			return "", apperrors.New(apperrors.KindCrypto, "invalid padding bytes")
		}
	}

	raw := string(plaintext[:len(plaintext)-padding])
	if !isCardNumber(raw) {
		return "", apperrors.New(apperrors.KindCrypto, "decrypted value is not a card number")
	}
	return raw, nil
}

// Mask decrypts a token and returns the display form: first four and last
// four digits with the middle eight replaced by the mask character.
func (v *Vault) Mask(token string) (string, error) {
	raw, err := v.Decrypt(token)
	if err != nil {
		return "", err
	}
	return raw[:4] + strings.Repeat(maskChar, 8) + raw[12:], nil
}

func isCardNumber(s string) bool {
	if len(s) != cardNumberLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
