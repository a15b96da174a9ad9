package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// kdfIterations is the PBKDF2 iteration count. Raising it invalidates
	// nothing (the count is not stored), but both sides must agree.
	kdfIterations = 10000
	// keyLen is the AES-256 key length in bytes.
	keyLen = 32
)

// kdfSalt is the fixed key-derivation salt. A fixed salt means equal
// secrets derive equal keys, which is what makes cross-device import work
// without transporting the salt alongside every archive.
var kdfSalt = []byte("keepsake.archive.kdf.v1")

// Ciphertext is the wire form of an encrypted payload.
type Ciphertext struct {
	// IVHex is the hex-encoded 16-byte initialization vector, generated
	// fresh per encryption and never reused.
	IVHex string
	// DataHex is the hex-encoded AES-256-CBC ciphertext.
	DataHex string
}

// DeriveKey derives the symmetric key from a secret string.
// PBKDF2-SHA256, fixed salt, 10,000 iterations, 256-bit output. Applied
// uniformly: a user password and an injected session token get the same
// treatment.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), kdfSalt, kdfIterations, keyLen, sha256.New)
}

// Encrypt encrypts plaintext under a key derived from secret.
func Encrypt(plaintext []byte, secret string) (Ciphertext, error) {
	block, err := aes.NewCipher(DeriveKey(secret))
	if err != nil {
		return Ciphertext{}, fmt.Errorf("create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Ciphertext{}, fmt.Errorf("generate iv: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return Ciphertext{
		IVHex:   hex.EncodeToString(iv),
		DataHex: hex.EncodeToString(out),
	}, nil
}

// Decrypt reverses Encrypt. The returned bytes are the raw plaintext;
// callers that expect structured data should run them through DecodeJSON.
func Decrypt(dataHex, ivHex, secret string) ([]byte, error) {
	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext hex: %w", err)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("decode iv hex: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv is %d bytes, want %d", len(iv), aes.BlockSize)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(data))
	}

	block, err := aes.NewCipher(DeriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	plaintext, err := unpadPKCS7(out, aes.BlockSize)
	if err != nil {
		// Bad padding almost always means a wrong secret.
		return nil, &DecryptError{Err: fmt.Errorf("unpad: %w", err)}
	}
	return plaintext, nil
}

// DecryptError reports a failed decryption, usually a wrong secret.
type DecryptError struct {
	Err error
}

func (e *DecryptError) Error() string { return "decrypt failed: " + e.Err.Error() }
func (e *DecryptError) Unwrap() error { return e.Err }

// DecryptJSON decrypts and then recovers structured data through the
// decode-fallback chain.
func DecryptJSON(dataHex, ivHex, secret string) (json.RawMessage, error) {
	plaintext, err := Decrypt(dataHex, ivHex, secret)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(plaintext)
}

// padPKCS7 pads data to a multiple of blockSize per PKCS#7.
func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpadPKCS7 strips and validates PKCS#7 padding.
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
