// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/relayfleet/gatewarden/internal/model"
)

// Store is the persistence contract the core consumes. It is a narrow view
// of db.Store so tests can supply in-memory fakes.
type Store interface {
	GetClientByID(id int) (*model.Client, error)
	BlockClient(id int) error
	UnblockClient(id int) error
	SetClientApproval(id int, state *string) error
	SwapClientSecretHash(id int, oldHash, newHash string) (bool, error)
	FindRecoveryCandidates(userID int, platform string) ([]model.RecoveryCandidate, error)
	GetSitesForClient(clientID int) ([]model.Site, error)
	GetExitNodesByIDs(ids []int) ([]model.ExitNode, error)
	GetClientIDsForSite(siteID int) ([]int, error)
	GetSiteIDsForExitNode(exitNodeID int) ([]int, error)
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(data *model.BackupData) error
}

// SiteConfigResolver returns the ordered list of peer site configurations a
// client may reach. Per-site access control is the resolver's
// responsibility; the sync engine treats the result as opaque.
type SiteConfigResolver interface {
	ResolveSiteConfigs(ctx context.Context, client *model.Client, relay bool) ([]model.SiteConfig, error)
}

// PushChannel attempts delivery of a message to a client's live connection
// if one exists. The registry of live connections is external mutable state;
// the core depends on it only through this capability. Send failures are
// reported for logging only and never propagate to the triggering operation.
type PushChannel interface {
	Send(ctx context.Context, clientID int, msg model.SyncMessage) error
}
