// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/relayfleet/gatewarden/internal/model"
)

func TestUnblockClearsApproval(t *testing.T) {
	st := newFakeStore()
	approved := model.ApprovalApproved
	st.clients[1] = &model.Client{ID: 1, Blocked: true, ApprovalState: &approved}

	a := NewAdmissionController(st)
	if err := a.Unblock(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := st.clients[1]
	if c.Blocked {
		t.Errorf("client still blocked")
	}
	if c.ApprovalState != nil {
		t.Errorf("approval state not cleared, got %q", *c.ApprovalState)
	}
}

func TestUnblockErrors(t *testing.T) {
	st := newFakeStore()
	st.clients[2] = &model.Client{ID: 2, Blocked: false}

	a := NewAdmissionController(st)
	tests := []struct {
		name    string
		id      int
		wantErr error
	}{
		{"unknown client", 99, ErrNotFound},
		{"not blocked", 2, ErrInvalidState},
		{"bad id", 0, ErrValidation},
		{"negative id", -3, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Unblock(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBlockTransitions(t *testing.T) {
	st := newFakeStore()
	st.clients[1] = &model.Client{ID: 1}

	a := NewAdmissionController(st)
	if err := a.Block(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.clients[1].Blocked {
		t.Fatalf("client not blocked")
	}
	// Blocking again is an invalid transition, not a no-op.
	if err := a.Block(context.Background(), 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
	if err := a.Block(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSetApproval(t *testing.T) {
	st := newFakeStore()
	st.clients[1] = &model.Client{ID: 1}
	st.clients[2] = &model.Client{ID: 2, Blocked: true}

	a := NewAdmissionController(st)
	if err := a.SetApproval(context.Background(), 1, model.ApprovalApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.clients[1].ApprovalState == nil || *st.clients[1].ApprovalState != model.ApprovalApproved {
		t.Errorf("approval state not persisted")
	}

	if err := a.SetApproval(context.Background(), 1, "banana"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown state: got %v, want ErrValidation", err)
	}
	if err := a.SetApproval(context.Background(), 2, model.ApprovalApproved); !errors.Is(err, ErrInvalidState) {
		t.Errorf("blocked client: got %v, want ErrInvalidState", err)
	}
	if err := a.SetApproval(context.Background(), 99, model.ApprovalApproved); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown client: got %v, want ErrNotFound", err)
	}
}
