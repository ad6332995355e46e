package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
)

// SealedPrefix marks values produced by Seal so plain values written before
// an encryption key was configured can still be read.
const SealedPrefix = "enc:v1:"

var ErrCiphertextTooShort = errors.New("ciphertext too short")

func newGCM(secret string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-256-GCM under a key derived from secret.
// An empty secret returns plaintext unchanged.
func Seal(plaintext, secret string) (string, error) {
	if secret == "" {
		return plaintext, nil
	}

	aead, err := newGCM(secret)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without SealedPrefix are returned as-is.
func Open(value, secret string) (string, error) {
	if len(value) < len(SealedPrefix) || value[:len(SealedPrefix)] != SealedPrefix {
		return value, nil
	}
	if secret == "" {
		return "", errors.New("sealed value but no encryption key configured")
	}

	data, err := base64.StdEncoding.DecodeString(value[len(SealedPrefix):])
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aead, err := newGCM(secret)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if len(data) < aead.NonceSize() {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return string(plaintext), nil
}
