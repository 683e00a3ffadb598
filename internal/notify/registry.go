// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package notify tracks live client connections and delivers sync messages to
// them. The registry is the only mutable shared state between the transport
// layer and the sync engine.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/relayfleet/gatewarden/internal/model"
)

var (
	// ErrNotConnected is returned when no live channel exists for a client.
	ErrNotConnected = errors.New("client not connected")
	// ErrChannelFull is returned when the client's buffer is saturated. The
	// message is dropped; the client reconciles on its next full sync.
	ErrChannelFull = errors.New("client channel full")
)

// DefaultBuffer is the per-client message buffer depth. Snapshots supersede
// each other, so a small buffer suffices.
const DefaultBuffer = 8

// Registry maps connected client IDs to their outbound message channels.
// It implements the push capability the sync engine depends on. A second
// Attach for the same client replaces the first; the displaced channel is
// closed so its reader loop exits.
type Registry struct {
	mu    sync.Mutex
	conns map[int]chan model.SyncMessage
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int]chan model.SyncMessage)}
}

// Attach registers a live connection for clientID and returns the channel the
// transport should drain plus a detach func. Detach is idempotent and safe to
// call after a replacement Attach has already displaced the channel.
func (r *Registry) Attach(clientID int) (<-chan model.SyncMessage, func()) {
	ch := make(chan model.SyncMessage, DefaultBuffer)

	r.mu.Lock()
	if old, ok := r.conns[clientID]; ok {
		close(old)
	}
	r.conns[clientID] = ch
	r.mu.Unlock()

	detach := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.conns[clientID]; ok && cur == ch {
			delete(r.conns, clientID)
			close(ch)
		}
	}
	return ch, detach
}

// Connected reports whether clientID currently has a live channel.
func (r *Registry) Connected(clientID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[clientID]
	return ok
}

// Send delivers msg to the client's live channel without blocking. Offline
// clients yield ErrNotConnected and saturated buffers yield ErrChannelFull;
// callers treat both as a missed best-effort push.
func (r *Registry) Send(ctx context.Context, clientID int, msg model.SyncMessage) error {
	// The lock is held across the send so a concurrent detach cannot close
	// the channel underneath us. The send never blocks, so this is cheap.
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.conns[clientID]
	if !ok {
		return ErrNotConnected
	}
	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}
