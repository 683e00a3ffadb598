// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/relayfleet/gatewarden/internal/model"
)

// Store defines the interface for all database operations in Gatewarden.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Client methods
	GetAllClients() ([]model.Client, error)
	GetClientByID(id int) (*model.Client, error)
	AddClient(name string, userID int, orgID, publicKey, secretHash string) (int, error)
	TouchClientLastSeen(id int) error
	ArchiveClient(id int) error

	// Admission methods. BlockClient and UnblockClient are single atomic
	// writes: no reader may observe blocked and approval_state mid-transition.
	BlockClient(id int) error
	UnblockClient(id int) error
	SetClientApproval(id int, state *string) error

	// SwapClientSecretHash replaces the stored secret hash only when the
	// current value still equals oldHash. It reports whether the swap applied.
	SwapClientSecretHash(id int, oldHash, newHash string) (bool, error)

	// Site methods
	GetAllSites() ([]model.Site, error)
	GetSiteByID(id int) (*model.Site, error)
	AddSite(orgID, name string, exitNodeID *int) (int, error)
	AssignSiteExitNode(siteID int, exitNodeID *int) error

	// Exit node methods
	GetAllExitNodes() ([]model.ExitNode, error)
	AddExitNode(name, publicKey, endpoint string) (int, error)
	GetExitNodesByIDs(ids []int) ([]model.ExitNode, error)

	// Association cache methods
	AssociateClientWithSite(clientID, siteID int) error
	DissociateClientFromSite(clientID, siteID int) error
	GetSitesForClient(clientID int) ([]model.Site, error)
	GetClientIDsForSite(siteID int) ([]int, error)
	GetSiteIDsForExitNode(exitNodeID int) ([]int, error)

	// Fingerprint methods
	RecordFingerprint(clientID int, platform string, lastSeen time.Time) error
	FindRecoveryCandidates(userID int, platform string) ([]model.RecoveryCandidate, error)

	// Audit log methods
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)
	LogAction(action string, details string) error

	// Backup methods
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(data *model.BackupData) error
}
