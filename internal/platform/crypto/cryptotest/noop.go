// Package cryptotest provides transparent secret capabilities for tests.
package cryptotest

import (
	"errors"
	"strings"
)

const (
	hashPrefix   = "hashed:"
	cipherPrefix = "enc:"
)

// Hasher prefixes instead of hashing. Test use only.
type Hasher struct{}

func (Hasher) Hash(plain string) (string, error) { return hashPrefix + plain, nil }

func (Hasher) Verify(encoded, plain string) bool { return encoded == hashPrefix+plain }

// Encryptor prefixes instead of encrypting. Test use only.
type Encryptor struct {
	// Calls counts Decrypt invocations.
	Calls int
}

func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	return cipherPrefix + plaintext, nil
}

func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	e.Calls++
	plain, ok := strings.CutPrefix(ciphertext, cipherPrefix)
	if !ok {
		return "", errors.New("not produced by cryptotest.Encryptor")
	}
	return plain, nil
}
