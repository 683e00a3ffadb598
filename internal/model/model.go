// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model contains the core domain entities for Gatewarden: clients,
// sites, exit nodes and the relations between them. These are plain structs
// shared by the data layer, the sync engine and the CLI.
package model

import (
	"fmt"
	"time"
)

// Approval states a client can be in. A nil ApprovalState means no decision
// is pending or recorded (the normal state of an operating client).
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Client represents a registered tunnel-agent device belonging to a user
// within an org. Clients are created on first registration and never
// hard-deleted; decommissioning archives them instead.
type Client struct {
	ID        int
	Name      string
	UserID    int
	OrgID     string
	PublicKey string
	// SecretHash is the one-way hash of the client's auth secret. The
	// plaintext is only ever held by the device itself.
	SecretHash    string
	Blocked       bool
	ApprovalState *string
	Archived      bool
	LastSeen      time.Time
}

// String returns the name@org representation used in logs and CLI output.
func (c Client) String() string {
	return fmt.Sprintf("%s@%s", c.Name, c.OrgID)
}

// Site is a private network segment clients may be permitted to reach.
// ExitNodeID is nil while the site is not assigned to an exit node; such
// sites never contribute to a client's resolved exit-node list.
type Site struct {
	ID         int
	OrgID      string
	Name       string
	ExitNodeID *int
}

// ExitNode is a relay/gateway terminating tunnel traffic for one or more
// sites. The relay port is a process-wide config value, not stored per node.
type ExitNode struct {
	ID        int
	Name      string
	PublicKey string
	Endpoint  string
}

// Fingerprint binds device-identifying attributes to a client identity.
// It is consulted only for identity recovery matching.
type Fingerprint struct {
	ClientID int
	Platform string
	LastSeen time.Time
}

// SiteAssociation is one row of the materialized client<->site reachability
// cache. The cache may contain redundant rows; consumers deduplicate.
type SiteAssociation struct {
	ClientID int
	SiteID   int
}

// RecoveryCandidate is one joined Client x Fingerprint row considered during
// identity recovery, ordered by the fingerprint's last_seen.
type RecoveryCandidate struct {
	ClientID   int
	SecretHash string
	LastSeen   time.Time
}

// AuditLogEntry is a single audit trail record written by mutating store
// operations.
type AuditLogEntry struct {
	ID        int
	Timestamp string
	Username  string
	Action    string
	Details   string
}
