// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/relayfleet/gatewarden/internal/model"
)

func TestSendToConnectedClient(t *testing.T) {
	r := NewRegistry()
	ch, detach := r.Attach(1)
	defer detach()

	msg := model.NewSyncMessage(model.TopologySnapshot{})
	if err := r.Send(context.Background(), 1, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := <-ch
	if got.Type != model.MessageTypeTopologySync {
		t.Errorf("message type = %q, want %q", got.Type, model.MessageTypeTopologySync)
	}
}

func TestSendToOfflineClient(t *testing.T) {
	r := NewRegistry()
	err := r.Send(context.Background(), 42, model.NewSyncMessage(model.TopologySnapshot{}))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("got %v, want ErrNotConnected", err)
	}
}

func TestSendToSaturatedChannel(t *testing.T) {
	r := NewRegistry()
	_, detach := r.Attach(1)
	defer detach()

	msg := model.NewSyncMessage(model.TopologySnapshot{})
	for i := 0; i < DefaultBuffer; i++ {
		if err := r.Send(context.Background(), 1, msg); err != nil {
			t.Fatalf("fill send %d: %v", i, err)
		}
	}
	if err := r.Send(context.Background(), 1, msg); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("got %v, want ErrChannelFull", err)
	}
}

func TestDetachRemovesConnection(t *testing.T) {
	r := NewRegistry()
	_, detach := r.Attach(1)
	if !r.Connected(1) {
		t.Fatalf("client should be connected after Attach")
	}
	detach()
	if r.Connected(1) {
		t.Fatalf("client still connected after detach")
	}
	// Detach is idempotent.
	detach()
}

func TestReattachDisplacesOldConnection(t *testing.T) {
	r := NewRegistry()
	oldCh, oldDetach := r.Attach(1)
	newCh, newDetach := r.Attach(1)
	defer newDetach()

	// The displaced channel is closed so its reader loop exits.
	if _, open := <-oldCh; open {
		t.Fatalf("old channel should be closed after re-attach")
	}

	msg := model.NewSyncMessage(model.TopologySnapshot{})
	if err := r.Send(context.Background(), 1, msg); err != nil {
		t.Fatalf("send after re-attach: %v", err)
	}
	select {
	case <-newCh:
	default:
		t.Fatalf("message not delivered to new channel")
	}

	// The old detach must not tear down the replacement connection.
	oldDetach()
	if !r.Connected(1) {
		t.Fatalf("stale detach removed the new connection")
	}
}
