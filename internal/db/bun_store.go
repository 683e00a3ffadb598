// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"sort"
	"time"

	"github.com/relayfleet/gatewarden/internal/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ClientModel maps the `clients` table for bun queries.
type ClientModel struct {
	bun.BaseModel `bun:"table:clients"`
	ID            int            `bun:"id,pk,autoincrement"`
	Name          string         `bun:"name"`
	UserID        int            `bun:"user_id"`
	OrgID         string         `bun:"org_id"`
	PublicKey     string         `bun:"public_key"`
	SecretHash    string         `bun:"secret_hash"`
	Blocked       bool           `bun:"blocked"`
	ApprovalState sql.NullString `bun:"approval_state"`
	Archived      bool           `bun:"archived"`
	LastSeen      time.Time      `bun:"last_seen,nullzero"`
}

// SiteModel maps the `sites` table.
type SiteModel struct {
	bun.BaseModel `bun:"table:sites"`
	ID            int           `bun:"id,pk,autoincrement"`
	OrgID         string        `bun:"org_id"`
	Name          string        `bun:"name"`
	ExitNodeID    sql.NullInt64 `bun:"exit_node_id"`
}

// ExitNodeModel maps the `exit_nodes` table.
type ExitNodeModel struct {
	bun.BaseModel `bun:"table:exit_nodes"`
	ID            int    `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
	PublicKey     string `bun:"public_key"`
	Endpoint      string `bun:"endpoint"`
}

// ClientSiteModel maps the `client_sites` association cache.
type ClientSiteModel struct {
	bun.BaseModel `bun:"table:client_sites"`
	ClientID      int `bun:"client_id"`
	SiteID        int `bun:"site_id"`
}

// FingerprintModel maps the `fingerprints` table.
type FingerprintModel struct {
	bun.BaseModel `bun:"table:fingerprints"`
	ClientID      int       `bun:"client_id,pk"`
	Platform      string    `bun:"platform,pk"`
	LastSeen      time.Time `bun:"last_seen"`
}

// AuditLogModel maps the `audit_log` table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---

func clientModelToModel(c ClientModel) model.Client {
	out := model.Client{
		ID:         c.ID,
		Name:       c.Name,
		UserID:     c.UserID,
		OrgID:      c.OrgID,
		PublicKey:  c.PublicKey,
		SecretHash: c.SecretHash,
		Blocked:    c.Blocked,
		Archived:   c.Archived,
		LastSeen:   c.LastSeen,
	}
	if c.ApprovalState.Valid {
		s := c.ApprovalState.String
		out.ApprovalState = &s
	}
	return out
}

func siteModelToModel(s SiteModel) model.Site {
	out := model.Site{ID: s.ID, OrgID: s.OrgID, Name: s.Name}
	if s.ExitNodeID.Valid {
		id := int(s.ExitNodeID.Int64)
		out.ExitNodeID = &id
	}
	return out
}

func exitNodeModelToModel(e ExitNodeModel) model.ExitNode {
	return model.ExitNode{ID: e.ID, Name: e.Name, PublicKey: e.PublicKey, Endpoint: e.Endpoint}
}

// bunStore is the bun-backed implementation of the Store interface. The
// dialect is fixed at construction time in NewStoreFromDSN.
type bunStore struct {
	bun *bun.DB
}

// --- Client methods ---

func (s *bunStore) GetAllClients() ([]model.Client, error) {
	ctx := context.Background()
	var rows []ClientModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, clientModelToModel(r))
	}
	return out, nil
}

func (s *bunStore) GetClientByID(id int) (*model.Client, error) {
	ctx := context.Background()
	var row ClientModel
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c := clientModelToModel(row)
	return &c, nil
}

func (s *bunStore) AddClient(name string, userID int, orgID, publicKey, secretHash string) (int, error) {
	ctx := context.Background()
	cm := &ClientModel{
		Name:       name,
		UserID:     userID,
		OrgID:      orgID,
		PublicKey:  publicKey,
		SecretHash: secretHash,
	}
	// Insert only the registration fields so blocked/approval_state/archived
	// take their DB defaults. Returning supports Postgres and MySQL.
	if _, err := s.bun.NewInsert().Model(cm).
		Column("name", "user_id", "org_id", "public_key", "secret_hash").
		Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_CLIENT", fmt.Sprintf("client: %s@%s", name, orgID))
	return cm.ID, nil
}

func (s *bunStore) TouchClientLastSeen(id int) error {
	ctx := context.Background()
	_, err := s.bun.NewUpdate().Model((*ClientModel)(nil)).
		Set("last_seen = ?", time.Now()).
		Where("id = ?", id).Exec(ctx)
	return err
}

func (s *bunStore) ArchiveClient(id int) error {
	ctx := context.Background()
	res, err := s.bun.NewUpdate().Model((*ClientModel)(nil)).
		Set("archived = ?", true).
		Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_ = s.LogAction("ARCHIVE_CLIENT", fmt.Sprintf("client_id: %d", id))
	return nil
}

// --- Admission methods ---

// BlockClient marks a client blocked. The approval state is left untouched:
// blocking records the anomaly, unblocking decides what trust remains.
func (s *bunStore) BlockClient(id int) error {
	ctx := context.Background()
	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NewUpdate().Model((*ClientModel)(nil)).
		Set("blocked = ?", true).
		Where("id = ? AND blocked = ?", id, false).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := tx.NewSelect().Model((*ClientModel)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyBlocked
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	_ = s.LogAction("BLOCK_CLIENT", fmt.Sprintf("client_id: %d", id))
	return nil
}

// UnblockClient clears the blocked flag and resets the approval state in one
// atomic write. Reinstatement forces re-approval rather than silently
// restoring prior trust.
func (s *bunStore) UnblockClient(id int) error {
	ctx := context.Background()
	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NewUpdate().Model((*ClientModel)(nil)).
		Set("blocked = ?", false).
		Set("approval_state = NULL").
		Where("id = ? AND blocked = ?", id, true).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := tx.NewSelect().Model((*ClientModel)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrNotBlocked
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	_ = s.LogAction("UNBLOCK_CLIENT", fmt.Sprintf("client_id: %d", id))
	return nil
}

func (s *bunStore) SetClientApproval(id int, state *string) error {
	ctx := context.Background()
	var v sql.NullString
	if state != nil {
		v = sql.NullString{String: *state, Valid: true}
	}
	res, err := s.bun.NewUpdate().Model((*ClientModel)(nil)).
		Set("approval_state = ?", v).
		Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	details := "approval_state: <none>"
	if state != nil {
		details = fmt.Sprintf("approval_state: %s", *state)
	}
	_ = s.LogAction("SET_CLIENT_APPROVAL", fmt.Sprintf("client_id: %d, %s", id, details))
	return nil
}

// SwapClientSecretHash performs the conditional check-and-set that closes the
// recovery read-then-write race: the update applies only while the stored
// hash still equals oldHash.
func (s *bunStore) SwapClientSecretHash(id int, oldHash, newHash string) (bool, error) {
	ctx := context.Background()
	res, err := s.bun.NewUpdate().Model((*ClientModel)(nil)).
		Set("secret_hash = ?", newHash).
		Where("id = ? AND secret_hash = ?", id, oldHash).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	_ = s.LogAction("ROTATE_CLIENT_SECRET", fmt.Sprintf("client_id: %d", id))
	return true, nil
}

// --- Site methods ---

func (s *bunStore) GetAllSites() ([]model.Site, error) {
	ctx := context.Background()
	var rows []SiteModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Site, 0, len(rows))
	for _, r := range rows {
		out = append(out, siteModelToModel(r))
	}
	return out, nil
}

func (s *bunStore) GetSiteByID(id int) (*model.Site, error) {
	ctx := context.Background()
	var row SiteModel
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	site := siteModelToModel(row)
	return &site, nil
}

func (s *bunStore) AddSite(orgID, name string, exitNodeID *int) (int, error) {
	ctx := context.Background()
	sm := &SiteModel{OrgID: orgID, Name: name}
	if exitNodeID != nil {
		sm.ExitNodeID = sql.NullInt64{Int64: int64(*exitNodeID), Valid: true}
	}
	if _, err := s.bun.NewInsert().Model(sm).
		Column("org_id", "name", "exit_node_id").
		Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_SITE", fmt.Sprintf("site: %s@%s", name, orgID))
	return sm.ID, nil
}

func (s *bunStore) AssignSiteExitNode(siteID int, exitNodeID *int) error {
	ctx := context.Background()
	var v sql.NullInt64
	if exitNodeID != nil {
		v = sql.NullInt64{Int64: int64(*exitNodeID), Valid: true}
	}
	res, err := s.bun.NewUpdate().Model((*SiteModel)(nil)).
		Set("exit_node_id = ?", v).
		Where("id = ?", siteID).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	details := fmt.Sprintf("site_id: %d, exit_node: <unassigned>", siteID)
	if exitNodeID != nil {
		details = fmt.Sprintf("site_id: %d, exit_node: %d", siteID, *exitNodeID)
	}
	_ = s.LogAction("ASSIGN_SITE_EXIT_NODE", details)
	return nil
}

// --- Exit node methods ---

func (s *bunStore) GetAllExitNodes() ([]model.ExitNode, error) {
	ctx := context.Background()
	var rows []ExitNodeModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.ExitNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, exitNodeModelToModel(r))
	}
	return out, nil
}

func (s *bunStore) AddExitNode(name, publicKey, endpoint string) (int, error) {
	ctx := context.Background()
	em := &ExitNodeModel{Name: name, PublicKey: publicKey, Endpoint: endpoint}
	if _, err := s.bun.NewInsert().Model(em).
		Column("name", "public_key", "endpoint").
		Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	_ = s.LogAction("ADD_EXIT_NODE", fmt.Sprintf("exit_node: %s (%s)", name, endpoint))
	return em.ID, nil
}

func (s *bunStore) GetExitNodesByIDs(ids []int) ([]model.ExitNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx := context.Background()
	var rows []ExitNodeModel
	if err := s.bun.NewSelect().Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.ExitNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, exitNodeModelToModel(r))
	}
	return out, nil
}

// --- Association cache methods ---

func (s *bunStore) AssociateClientWithSite(clientID, siteID int) error {
	ctx := context.Background()
	_, err := s.bun.NewInsert().Model(&ClientSiteModel{ClientID: clientID, SiteID: siteID}).Exec(ctx)
	return MapDBError(err)
}

func (s *bunStore) DissociateClientFromSite(clientID, siteID int) error {
	ctx := context.Background()
	_, err := s.bun.NewDelete().Model((*ClientSiteModel)(nil)).
		Where("client_id = ? AND site_id = ?", clientID, siteID).Exec(ctx)
	return err
}

// GetSitesForClient returns the sites reachable by a client via the
// association cache. Redundant cache rows produce redundant result rows;
// deduplication is the consumer's concern. The select is column-explicit so
// the join contributes the only FROM source; a model select would add its own
// table expression alongside ours and cross-join every site to every row.
func (s *bunStore) GetSitesForClient(clientID int) ([]model.Site, error) {
	ctx := context.Background()
	var rows []SiteModel
	err := s.bun.NewSelect().
		TableExpr("sites AS s").
		ColumnExpr("s.id AS id").
		ColumnExpr("s.org_id AS org_id").
		ColumnExpr("s.name AS name").
		ColumnExpr("s.exit_node_id AS exit_node_id").
		Join("JOIN client_sites AS cs ON cs.site_id = s.id").
		Where("cs.client_id = ?", clientID).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]model.Site, 0, len(rows))
	for _, r := range rows {
		out = append(out, siteModelToModel(r))
	}
	return out, nil
}

func (s *bunStore) GetClientIDsForSite(siteID int) ([]int, error) {
	ctx := context.Background()
	var ids []int
	err := s.bun.NewSelect().Model((*ClientSiteModel)(nil)).
		ColumnExpr("DISTINCT client_id").
		Where("site_id = ?", siteID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *bunStore) GetSiteIDsForExitNode(exitNodeID int) ([]int, error) {
	ctx := context.Background()
	var ids []int
	err := s.bun.NewSelect().Model((*SiteModel)(nil)).
		Column("id").
		Where("exit_node_id = ?", exitNodeID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

// --- Fingerprint methods ---

// RecordFingerprint upserts the device characteristic for a client. The
// (client_id, platform) pair is the primary key; re-seeing a device only
// advances last_seen.
func (s *bunStore) RecordFingerprint(clientID int, platform string, lastSeen time.Time) error {
	ctx := context.Background()
	_, err := s.fingerprintUpsert(&FingerprintModel{
		ClientID: clientID,
		Platform: platform,
		LastSeen: lastSeen,
	}).Exec(ctx)
	return MapDBError(err)
}

// fingerprintUpsert builds the dialect-appropriate insert-or-update. MySQL
// has no ON CONFLICT clause; bun passes the On expression through verbatim,
// so the branch has to happen here.
func (s *bunStore) fingerprintUpsert(fp *FingerprintModel) *bun.InsertQuery {
	q := s.bun.NewInsert().Model(fp)
	if s.bun.Dialect().Name() == dialect.MySQL {
		return q.On("DUPLICATE KEY UPDATE").
			Set("last_seen = VALUES(last_seen)")
	}
	return q.On("CONFLICT (client_id, platform) DO UPDATE").
		Set("last_seen = EXCLUDED.last_seen")
}

func (s *bunStore) FindRecoveryCandidates(userID int, platform string) ([]model.RecoveryCandidate, error) {
	ctx := context.Background()
	var cands []model.RecoveryCandidate
	err := s.bun.NewSelect().
		TableExpr("clients AS c").
		ColumnExpr("c.id AS client_id").
		ColumnExpr("c.secret_hash AS secret_hash").
		ColumnExpr("f.last_seen AS last_seen").
		Join("JOIN fingerprints AS f ON f.client_id = c.id").
		Where("c.user_id = ?", userID).
		Where("f.platform = ?", platform).
		OrderExpr("f.last_seen ASC").
		Scan(ctx, &cands)
	if err != nil {
		return nil, err
	}
	return cands, nil
}

// --- Audit log methods ---

func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var rows []AuditLogModel
	if err := s.bun.NewSelect().Model(&rows).Order("id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AuditLogEntry{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Username:  r.Username,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	return out, nil
}

func (s *bunStore) LogAction(action string, details string) error {
	ctx := context.Background()
	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}
	_, err := s.bun.NewInsert().Model(&AuditLogModel{
		Timestamp: time.Now().Format(time.RFC3339),
		Username:  username,
		Action:    action,
		Details:   details,
	}).Exec(ctx)
	return err
}

// --- Backup methods ---

func (s *bunStore) ExportDataForBackup() (*model.BackupData, error) {
	data := &model.BackupData{SchemaVersion: 1}

	clients, err := s.GetAllClients()
	if err != nil {
		return nil, fmt.Errorf("export clients: %w", err)
	}
	data.Clients = clients

	sites, err := s.GetAllSites()
	if err != nil {
		return nil, fmt.Errorf("export sites: %w", err)
	}
	data.Sites = sites

	nodes, err := s.GetAllExitNodes()
	if err != nil {
		return nil, fmt.Errorf("export exit nodes: %w", err)
	}
	data.ExitNodes = nodes

	ctx := context.Background()
	var assocs []ClientSiteModel
	if err := s.bun.NewSelect().Model(&assocs).Scan(ctx); err != nil {
		return nil, fmt.Errorf("export associations: %w", err)
	}
	for _, a := range assocs {
		data.Associations = append(data.Associations, model.SiteAssociation{ClientID: a.ClientID, SiteID: a.SiteID})
	}

	var fps []FingerprintModel
	if err := s.bun.NewSelect().Model(&fps).Scan(ctx); err != nil {
		return nil, fmt.Errorf("export fingerprints: %w", err)
	}
	for _, f := range fps {
		data.Fingerprints = append(data.Fingerprints, model.Fingerprint{ClientID: f.ClientID, Platform: f.Platform, LastSeen: f.LastSeen})
	}

	audit, err := s.GetAllAuditLogEntries()
	if err != nil {
		return nil, fmt.Errorf("export audit log: %w", err)
	}
	data.AuditLogEntries = audit

	return data, nil
}

func (s *bunStore) ImportDataFromBackup(data *model.BackupData) error {
	ctx := context.Background()
	tx, err := s.bun.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Restore is destructive: wipe existing rows first. Raw DELETEs because
	// bun requires a WHERE clause on model deletes.
	for _, table := range []string{"client_sites", "fingerprints", "sites", "exit_nodes", "clients", "audit_log"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	for _, c := range data.Clients {
		cm := ClientModel{
			ID:         c.ID,
			Name:       c.Name,
			UserID:     c.UserID,
			OrgID:      c.OrgID,
			PublicKey:  c.PublicKey,
			SecretHash: c.SecretHash,
			Blocked:    c.Blocked,
			Archived:   c.Archived,
			LastSeen:   c.LastSeen,
		}
		if c.ApprovalState != nil {
			cm.ApprovalState = sql.NullString{String: *c.ApprovalState, Valid: true}
		}
		if _, err := tx.NewInsert().Model(&cm).Exec(ctx); err != nil {
			return fmt.Errorf("import client %d: %w", c.ID, err)
		}
	}
	for _, n := range data.ExitNodes {
		nm := ExitNodeModel{ID: n.ID, Name: n.Name, PublicKey: n.PublicKey, Endpoint: n.Endpoint}
		if _, err := tx.NewInsert().Model(&nm).Exec(ctx); err != nil {
			return fmt.Errorf("import exit node %d: %w", n.ID, err)
		}
	}
	for _, st := range data.Sites {
		sm := SiteModel{ID: st.ID, OrgID: st.OrgID, Name: st.Name}
		if st.ExitNodeID != nil {
			sm.ExitNodeID = sql.NullInt64{Int64: int64(*st.ExitNodeID), Valid: true}
		}
		if _, err := tx.NewInsert().Model(&sm).Exec(ctx); err != nil {
			return fmt.Errorf("import site %d: %w", st.ID, err)
		}
	}
	for _, a := range data.Associations {
		if _, err := tx.NewInsert().Model(&ClientSiteModel{ClientID: a.ClientID, SiteID: a.SiteID}).Exec(ctx); err != nil {
			return fmt.Errorf("import association %d/%d: %w", a.ClientID, a.SiteID, err)
		}
	}
	for _, f := range data.Fingerprints {
		fm := FingerprintModel{ClientID: f.ClientID, Platform: f.Platform, LastSeen: f.LastSeen}
		if _, err := tx.NewInsert().Model(&fm).Exec(ctx); err != nil {
			return fmt.Errorf("import fingerprint %d/%s: %w", f.ClientID, f.Platform, err)
		}
	}
	for _, e := range data.AuditLogEntries {
		em := AuditLogModel{ID: e.ID, Timestamp: e.Timestamp, Username: e.Username, Action: e.Action, Details: e.Details}
		if _, err := tx.NewInsert().Model(&em).Exec(ctx); err != nil {
			return fmt.Errorf("import audit entry %d: %w", e.ID, err)
		}
	}

	return tx.Commit()
}
