package ps

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// ErrDecrypt marks a snapshot that could not be decrypted, almost
// always a wrong passphrase. It is deliberately distinct from
// *FormatError: the bytes may be a perfectly valid snapshot under the
// right key.
var ErrDecrypt = errors.New("cannot decrypt snapshot (wrong passphrase?)")

// scrypt cost parameters. Bumping these requires a format version bump
// because the parameters are not stored in the file.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	keyLen   = 32 // AES-256
	saltLen  = 16
	nonceLen = 12 // GCM standard nonce size
)

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// encrypt seals plaintext with AES-256-GCM under a key derived from
// the passphrase. Layout: salt || nonce || ciphertext.
func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	out := make([]byte, 0, saltLen+nonceLen+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// decrypt reverses encrypt. Truncated input is a *FormatError; a GCM
// authentication failure is ErrDecrypt.
func decrypt(data []byte, passphrase string) ([]byte, error) {
	if len(data) < saltLen+nonceLen+1 {
		return nil, &FormatError{Reason: "encrypted snapshot truncated"}
	}
	salt := data[:saltLen]
	nonce := data[saltLen : saltLen+nonceLen]
	ciphertext := data[saltLen+nonceLen:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
