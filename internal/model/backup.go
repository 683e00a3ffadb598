// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all relational state exported for a backup.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	// Data from each table.
	Clients         []Client          `json:"clients"`
	Sites           []Site            `json:"sites"`
	ExitNodes       []ExitNode        `json:"exit_nodes"`
	Associations    []SiteAssociation `json:"associations"`
	Fingerprints    []Fingerprint     `json:"fingerprints"`
	AuditLogEntries []AuditLogEntry   `json:"audit_log_entries"`
}
