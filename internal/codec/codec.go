// Package codec provides the reversible transform applied to collections
// before they reach local storage. The store treats a codec as opaque; the
// only contract is that Decode inverts Encode.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// Codec transforms a structured value to and from a persisted string.
type Codec interface {
	Encode(v any) (string, error)
	Decode(s string, out any) error
}

// Plain is the identity codec: plain JSON text.
type Plain struct{}

func (Plain) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("plain encode: %w", err)
	}
	return string(b), nil
}

func (Plain) Decode(s string, out any) error {
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("plain decode: %w", err)
	}
	return nil
}

// AESCodec encrypts the JSON form of a value with AES-256-GCM and stores it
// base64-encoded. The key is derived from the configured secret.
type AESCodec struct {
	key [32]byte
}

// NewAES creates an AESCodec from a secret string.
func NewAES(secret string) *AESCodec {
	return &AESCodec{key: sha256.Sum256([]byte(secret))}
}

func (c *AESCodec) Encode(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("aes encode: %w", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", fmt.Errorf("aes encode: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("aes encode: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("aes encode: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCodec) Decode(s string, out any) error {
	sealed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("aes decode: %w", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return fmt.Errorf("aes decode: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("aes decode: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return fmt.Errorf("aes decode: ciphertext shorter than nonce")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("aes decode: %w", err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("aes decode: %w", err)
	}
	return nil
}

// DecodeCompat decodes a persisted value written either through c or as
// plain JSON. Rows written before encoding was enabled carry encoded=false
// and are read directly; when a codec decode fails on a row marked encoded,
// a plain JSON read is attempted before giving up. Callers treat any error
// as "collection unreadable" and fall back to an empty collection.
func DecodeCompat(c Codec, value string, encoded bool, out any) error {
	if c == nil || !encoded {
		return Plain{}.Decode(value, out)
	}
	if err := c.Decode(value, out); err != nil {
		if perr := (Plain{}).Decode(value, out); perr == nil {
			return nil
		}
		return err
	}
	return nil
}
