// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"strings"
	"testing"
)

func TestGenerateSecretAlphabetAndLength(t *testing.T) {
	s, err := GenerateSecret(DefaultSecretLength)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(s.Bytes()) != DefaultSecretLength {
		t.Fatalf("length = %d, want %d", len(s.Bytes()), DefaultSecretLength)
	}
	for _, c := range s.Bytes() {
		if !strings.ContainsRune(secretAlphabet, rune(c)) {
			t.Fatalf("secret contains %q outside the alphabet", c)
		}
	}
}

func TestGenerateSecretDefaultsLength(t *testing.T) {
	s, err := GenerateSecret(0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(s.Bytes()) != DefaultSecretLength {
		t.Fatalf("length = %d, want default %d", len(s.Bytes()), DefaultSecretLength)
	}
}

func TestGenerateSecretUnique(t *testing.T) {
	a, _ := GenerateSecret(DefaultSecretLength)
	b, _ := GenerateSecret(DefaultSecretLength)
	if string(a.Bytes()) == string(b.Bytes()) {
		t.Fatalf("two generated secrets are identical")
	}
}

func TestHashAndVerify(t *testing.T) {
	s, _ := GenerateSecret(16)
	hash, err := HashSecret(s)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == string(s.Bytes()) {
		t.Fatalf("hash equals plaintext")
	}
	if !VerifySecret(hash, s) {
		t.Errorf("correct secret did not verify")
	}
	if VerifySecret(hash, FromString("wrong")) {
		t.Errorf("wrong secret verified")
	}
}
