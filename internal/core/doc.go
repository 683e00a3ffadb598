// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core implements the control-plane logic of Gatewarden: the
// admission state machine for clients, identity recovery with secret
// rotation, and the topology sync engine that computes and pushes per-client
// network snapshots. Functions operate via small interfaces declared in
// interfaces.go and return results/errors instead of performing UI work.
package core
