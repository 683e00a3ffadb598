// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/relayfleet/gatewarden/internal/model"
	"github.com/relayfleet/gatewarden/internal/security"
)

func TestRecoverSingleMatch(t *testing.T) {
	st := newFakeStore()
	st.clients[7] = &model.Client{ID: 7, SecretHash: "old-hash"}
	st.candidates = []model.RecoveryCandidate{{ClientID: 7, SecretHash: "old-hash"}}

	svc := NewIdentityRecoveryService(st)
	result, err := svc.Recover(context.Background(), 1, "linux-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClientID != 7 {
		t.Errorf("got client %d, want 7", result.ClientID)
	}
	if len(result.Secret.Bytes()) != security.DefaultSecretLength {
		t.Errorf("secret length = %d, want %d", len(result.Secret.Bytes()), security.DefaultSecretLength)
	}
	// The stored hash must have rotated and verify against the new secret.
	if st.clients[7].SecretHash == "old-hash" {
		t.Fatalf("secret hash not rotated")
	}
	if !security.VerifySecret(st.clients[7].SecretHash, result.Secret) {
		t.Errorf("rotated hash does not verify against issued secret")
	}
}

func TestRecoverNoMatch(t *testing.T) {
	st := newFakeStore()
	svc := NewIdentityRecoveryService(st)
	_, err := svc.Recover(context.Background(), 1, "linux-abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRecoverAmbiguousMatchRefusedWithoutMutation(t *testing.T) {
	st := newFakeStore()
	st.clients[7] = &model.Client{ID: 7, SecretHash: "hash-a"}
	st.clients[8] = &model.Client{ID: 8, SecretHash: "hash-b"}
	st.candidates = []model.RecoveryCandidate{
		{ClientID: 7, SecretHash: "hash-a"},
		{ClientID: 8, SecretHash: "hash-b"},
	}

	svc := NewIdentityRecoveryService(st)
	_, err := svc.Recover(context.Background(), 1, "linux-abc")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	// No secret may rotate on an ambiguous match, regardless of recency.
	if st.clients[7].SecretHash != "hash-a" || st.clients[8].SecretHash != "hash-b" {
		t.Errorf("ambiguous recovery mutated a secret hash")
	}
}

func TestRecoverConcurrentRotationLoses(t *testing.T) {
	st := newFakeStore()
	// The candidate row carries a stale hash: someone rotated in between.
	st.clients[7] = &model.Client{ID: 7, SecretHash: "fresh-hash"}
	st.candidates = []model.RecoveryCandidate{{ClientID: 7, SecretHash: "stale-hash"}}

	svc := NewIdentityRecoveryService(st)
	_, err := svc.Recover(context.Background(), 1, "linux-abc")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if st.clients[7].SecretHash != "fresh-hash" {
		t.Errorf("concurrent loser overwrote the fresh hash")
	}
}

func TestRecoverValidation(t *testing.T) {
	svc := NewIdentityRecoveryService(newFakeStore())
	tests := []struct {
		name     string
		userID   int
		platform string
	}{
		{"zero user", 0, "linux-abc"},
		{"negative user", -1, "linux-abc"},
		{"empty platform", 1, ""},
		{"blank platform", 1, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recover(context.Background(), tt.userID, tt.platform)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}
}
