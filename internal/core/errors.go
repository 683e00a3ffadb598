// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"errors"
	"fmt"

	"github.com/relayfleet/gatewarden/internal/db"
)

// Error taxonomy for control-plane operations. Deterministic failures
// (validation, not-found, conflict, invalid state) are returned directly to
// the caller with enough context to correct the request; anything else is an
// unexpected collaborator failure and surfaces opaquely after being logged.
var (
	// ErrValidation marks malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks a lookup that matched no entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an ambiguous identity match or a lost atomic update.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState marks an illegal lifecycle transition.
	ErrInvalidState = errors.New("invalid state")
)

// mapStoreError lifts a data-layer error into the core taxonomy. Unmapped
// errors are wrapped with the entity description and stay opaque.
func mapStoreError(err error, entity string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}
