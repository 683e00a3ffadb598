// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/relayfleet/gatewarden/internal/security"
)

// RecoveryResult carries the outcome of a successful identity recovery. The
// secret is returned exactly once; only its hash is persisted.
type RecoveryResult struct {
	ClientID int
	Secret   security.Secret
}

// IdentityRecoveryService matches a device fingerprint to exactly one client
// identity and rotates its secret.
type IdentityRecoveryService struct {
	store Store
}

// NewIdentityRecoveryService returns a recovery service backed by st.
func NewIdentityRecoveryService(st Store) *IdentityRecoveryService {
	return &IdentityRecoveryService{store: st}
}

// Recover re-issues a client secret after the device lost its copy. The
// fingerprint must resolve to exactly one identity under the given user:
// zero matches is ErrNotFound, two or more is ErrConflict with no mutation.
// Disambiguating by recency is never attempted; a fingerprint colliding
// across identities must not allow a credential reset.
//
// The rotation itself is a conditional swap keyed on the prior hash, so two
// concurrent recoveries cannot both mint a valid secret: the loser observes
// a changed hash and fails with ErrConflict.
func (s *IdentityRecoveryService) Recover(ctx context.Context, userID int, platformFingerprint string) (*RecoveryResult, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ErrValidation)
	}
	if strings.TrimSpace(platformFingerprint) == "" {
		return nil, fmt.Errorf("%w: platform fingerprint must not be empty", ErrValidation)
	}

	cands, err := s.store.FindRecoveryCandidates(userID, platformFingerprint)
	if err != nil {
		return nil, fmt.Errorf("find recovery candidates: %w", err)
	}
	switch {
	case len(cands) == 0:
		return nil, fmt.Errorf("%w: no identity matches fingerprint", ErrNotFound)
	case len(cands) > 1:
		return nil, fmt.Errorf("%w: fingerprint matches %d identities", ErrConflict, len(cands))
	}
	cand := cands[0]

	secret, err := security.GenerateSecret(security.DefaultSecretLength)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := security.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	swapped, err := s.store.SwapClientSecretHash(cand.ClientID, cand.SecretHash, hash)
	if err != nil {
		return nil, fmt.Errorf("rotate secret for client %d: %w", cand.ClientID, err)
	}
	if !swapped {
		// Someone else rotated between our read and write; the caller can retry.
		return nil, fmt.Errorf("%w: identity changed concurrently", ErrConflict)
	}

	return &RecoveryResult{ClientID: cand.ClientID, Secret: secret}, nil
}
