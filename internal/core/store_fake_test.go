// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/model"
)

// fakeStore implements the core Store interface in memory with the same
// admission semantics as the real data layer.
type fakeStore struct {
	clients         map[int]*model.Client
	candidates      []model.RecoveryCandidate
	sitesByClient   map[int][]model.Site
	exitNodes       map[int]model.ExitNode
	clientIDsBySite map[int][]int
	siteIDsByNode   map[int][]int
	backup          *model.BackupData

	// forced errors, nil means success
	findErr error
	swapErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:         map[int]*model.Client{},
		sitesByClient:   map[int][]model.Site{},
		exitNodes:       map[int]model.ExitNode{},
		clientIDsBySite: map[int][]int{},
		siteIDsByNode:   map[int][]int{},
	}
}

func (f *fakeStore) GetClientByID(id int) (*model.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) BlockClient(id int) error {
	c, ok := f.clients[id]
	if !ok {
		return db.ErrNotFound
	}
	if c.Blocked {
		return db.ErrAlreadyBlocked
	}
	c.Blocked = true
	return nil
}

func (f *fakeStore) UnblockClient(id int) error {
	c, ok := f.clients[id]
	if !ok {
		return db.ErrNotFound
	}
	if !c.Blocked {
		return db.ErrNotBlocked
	}
	c.Blocked = false
	c.ApprovalState = nil
	return nil
}

func (f *fakeStore) SetClientApproval(id int, state *string) error {
	c, ok := f.clients[id]
	if !ok {
		return db.ErrNotFound
	}
	c.ApprovalState = state
	return nil
}

func (f *fakeStore) SwapClientSecretHash(id int, oldHash, newHash string) (bool, error) {
	if f.swapErr != nil {
		return false, f.swapErr
	}
	c, ok := f.clients[id]
	if !ok || c.SecretHash != oldHash {
		return false, nil
	}
	c.SecretHash = newHash
	return true, nil
}

func (f *fakeStore) FindRecoveryCandidates(userID int, platform string) ([]model.RecoveryCandidate, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.candidates, nil
}

func (f *fakeStore) GetSitesForClient(clientID int) ([]model.Site, error) {
	return f.sitesByClient[clientID], nil
}

func (f *fakeStore) GetExitNodesByIDs(ids []int) ([]model.ExitNode, error) {
	var out []model.ExitNode
	for _, id := range ids {
		if n, ok := f.exitNodes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) GetClientIDsForSite(siteID int) ([]int, error) {
	return f.clientIDsBySite[siteID], nil
}

func (f *fakeStore) GetSiteIDsForExitNode(exitNodeID int) ([]int, error) {
	return f.siteIDsByNode[exitNodeID], nil
}

func (f *fakeStore) ExportDataForBackup() (*model.BackupData, error) {
	return f.backup, nil
}

func (f *fakeStore) ImportDataFromBackup(data *model.BackupData) error {
	f.backup = data
	return nil
}

// recordingPush captures sync messages per client.
type recordingPush struct {
	sent    map[int][]model.SyncMessage
	sendErr error
}

func newRecordingPush() *recordingPush {
	return &recordingPush{sent: map[int][]model.SyncMessage{}}
}

func (p *recordingPush) Send(_ context.Context, clientID int, msg model.SyncMessage) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent[clientID] = append(p.sent[clientID], msg)
	return nil
}
