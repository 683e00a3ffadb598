// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// secretAlphabet avoids characters that are easy to misread when an operator
// has to relay a secret out of band.
const secretAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// DefaultSecretLength is the length of generated client secrets. 48 chars
// over a 57-symbol alphabet is ~280 bits of entropy.
const DefaultSecretLength = 48

// GenerateSecret returns a new high-entropy secret of n characters drawn
// from crypto/rand.
func GenerateSecret(n int) (Secret, error) {
	if n <= 0 {
		n = DefaultSecretLength
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}
	return Secret(buf), nil
}

// HashSecret computes the one-way hash stored in place of the plaintext.
// Only the hash is ever persisted; the plaintext is returned to the caller
// exactly once and is not retrievable afterwards.
func HashSecret(s Secret) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// VerifySecret reports whether the plaintext secret matches the stored hash.
func VerifySecret(hash string, s Secret) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(s)) == nil
}
