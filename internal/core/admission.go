// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/model"
)

// AdmissionController governs the blocked/approved/pending lifecycle of a
// client. It persists state changes only; re-syncing topology on a status
// change is the responsibility of a listening collaborator.
type AdmissionController struct {
	store Store
}

// NewAdmissionController returns an AdmissionController backed by st.
func NewAdmissionController(st Store) *AdmissionController {
	return &AdmissionController{store: st}
}

// Unblock reinstates a blocked client. Blocking is treated as a severe,
// likely anomaly-triggered action, so reinstatement clears the approval
// state in the same atomic write: the client must be re-approved rather
// than silently regaining prior trust. Unblocking a client that is not
// blocked is rejected, not a no-op.
func (a *AdmissionController) Unblock(ctx context.Context, clientID int) error {
	if clientID <= 0 {
		return fmt.Errorf("%w: client id must be positive", ErrValidation)
	}
	err := a.store.UnblockClient(clientID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	case errors.Is(err, db.ErrNotBlocked):
		return fmt.Errorf("%w: client %d is not blocked", ErrInvalidState, clientID)
	default:
		return fmt.Errorf("unblock client %d: %w", clientID, err)
	}
}

// Block marks a client blocked. The approval state is left untouched; the
// later unblock decides what trust remains.
func (a *AdmissionController) Block(ctx context.Context, clientID int) error {
	if clientID <= 0 {
		return fmt.Errorf("%w: client id must be positive", ErrValidation)
	}
	err := a.store.BlockClient(clientID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	case errors.Is(err, db.ErrAlreadyBlocked):
		return fmt.Errorf("%w: client %d is already blocked", ErrInvalidState, clientID)
	default:
		return fmt.Errorf("block client %d: %w", clientID, err)
	}
}

// SetApproval records an operator approval decision for a client. Blocked
// clients cannot be approved; they must be unblocked first.
func (a *AdmissionController) SetApproval(ctx context.Context, clientID int, state string) error {
	if clientID <= 0 {
		return fmt.Errorf("%w: client id must be positive", ErrValidation)
	}
	switch state {
	case model.ApprovalPending, model.ApprovalApproved, model.ApprovalRejected:
	default:
		return fmt.Errorf("%w: unknown approval state %q", ErrValidation, state)
	}

	client, err := a.store.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
		}
		return fmt.Errorf("load client %d: %w", clientID, err)
	}
	if client.Blocked {
		return fmt.Errorf("%w: client %d is blocked", ErrInvalidState, clientID)
	}

	if err := a.store.SetClientApproval(clientID, &state); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
		}
		return fmt.Errorf("set approval for client %d: %w", clientID, err)
	}
	return nil
}
