// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/relayfleet/gatewarden/internal/logging"
	"github.com/relayfleet/gatewarden/internal/model"
	"github.com/relayfleet/gatewarden/util/mapst"
)

// Every pushed site config carries relay=true regardless of how the site was
// resolved. Fleets in the field depend on the relay path being advertised;
// honoring a per-site relay=false here bricks their connectivity.
const forceRelayFlag = true

// SyncEngine computes full topology snapshots per client and pushes them over
// live channels. Pushes are best effort: a client that is offline or slow
// simply misses this snapshot and reconciles on its next connect.
type SyncEngine struct {
	store     Store
	sites     SiteConfigResolver
	push      PushChannel
	relayPort int
}

// NewSyncEngine returns a SyncEngine wired to the given collaborators.
// relayPort is advertised in every exit-node peer entry.
func NewSyncEngine(st Store, resolver SiteConfigResolver, push PushChannel, relayPort int) *SyncEngine {
	return &SyncEngine{store: st, sites: resolver, push: push, relayPort: relayPort}
}

// BuildSnapshot computes the full topology snapshot for one client: its
// resolved site configs plus the exit nodes serving the client's associated
// sites. Both slices are always non-nil so the wire form stays [] rather
// than null for clients with no reachability.
func (e *SyncEngine) BuildSnapshot(ctx context.Context, client *model.Client) (*model.TopologySnapshot, error) {
	configs, err := e.sites.ResolveSiteConfigs(ctx, client, forceRelayFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve site configs for %s: %w", client, err)
	}
	if configs == nil {
		configs = []model.SiteConfig{}
	}
	for i := range configs {
		configs[i].Relay = forceRelayFlag
	}

	peers, err := e.resolveExitNodePeers(client.ID)
	if err != nil {
		return nil, err
	}

	return &model.TopologySnapshot{Sites: configs, ExitNodes: peers}, nil
}

// resolveExitNodePeers walks the client's associated sites, groups them by
// assigned exit node and returns one peer entry per node. Sites without an
// exit node are skipped; duplicate association rows collapse because site
// membership is tracked as a set.
func (e *SyncEngine) resolveExitNodePeers(clientID int) ([]model.ExitNodePeer, error) {
	sites, err := e.store.GetSitesForClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("load sites for client %d: %w", clientID, err)
	}

	siteIDsByNode := make(map[int]map[int]struct{})
	for _, site := range sites {
		if site.ExitNodeID == nil {
			continue
		}
		nodeID := *site.ExitNodeID
		if siteIDsByNode[nodeID] == nil {
			siteIDsByNode[nodeID] = make(map[int]struct{})
		}
		siteIDsByNode[nodeID][site.ID] = struct{}{}
	}

	nodeIDs := mapst.Keys(siteIDsByNode)
	sort.Ints(nodeIDs)

	nodes, err := e.store.GetExitNodesByIDs(nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("load exit nodes for client %d: %w", clientID, err)
	}
	nodesByID := make(map[int]model.ExitNode, len(nodes))
	for _, n := range nodes {
		nodesByID[n.ID] = n
	}

	peers := make([]model.ExitNodePeer, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		node, ok := nodesByID[nodeID]
		if !ok {
			// Dangling assignment; the site points at a node that vanished.
			logging.Warnf("sync: exit node %d referenced by a site but not found, skipping", nodeID)
			continue
		}
		siteIDs := mapst.Keys(siteIDsByNode[nodeID])
		sort.Ints(siteIDs)
		peers = append(peers, model.ExitNodePeer{
			PublicKey: node.PublicKey,
			RelayPort: e.relayPort,
			Endpoint:  node.Endpoint,
			SiteIDs:   siteIDs,
		})
	}
	return peers, nil
}

// SyncClient builds and pushes the client's snapshot. Delivery is fire and
// forget: a push failure is logged and swallowed so the operation that
// triggered the sync still succeeds. Only snapshot computation errors
// propagate.
func (e *SyncEngine) SyncClient(ctx context.Context, client *model.Client) error {
	snapshot, err := e.BuildSnapshot(ctx, client)
	if err != nil {
		return err
	}
	msg := model.NewSyncMessage(*snapshot)
	if err := e.push.Send(ctx, client.ID, msg); err != nil {
		logging.Warnf("sync: push to client %d (%s) failed: %v", client.ID, client, err)
		return nil
	}
	logging.Debugf("sync: pushed snapshot to client %d (%d sites, %d exit nodes)",
		client.ID, len(snapshot.Sites), len(snapshot.ExitNodes))
	return nil
}

// SyncClientByID loads the client and syncs it. Unknown clients map to
// ErrNotFound.
func (e *SyncEngine) SyncClientByID(ctx context.Context, clientID int) error {
	client, err := e.loadClient(clientID)
	if err != nil {
		return err
	}
	return e.SyncClient(ctx, client)
}

// SyncSite re-syncs every client associated with the site and returns how
// many clients were dispatched. Per-client failures are logged and skipped so
// one bad client does not starve the rest of the fan-out.
func (e *SyncEngine) SyncSite(ctx context.Context, siteID int) (int, error) {
	clientIDs, err := e.store.GetClientIDsForSite(siteID)
	if err != nil {
		return 0, fmt.Errorf("load clients for site %d: %w", siteID, err)
	}
	return e.syncMany(ctx, dedupIDs(clientIDs)), nil
}

// SyncExitNode re-syncs every client that can reach any site served by the
// node and returns how many clients were dispatched. Clients associated with
// several such sites are synced once.
func (e *SyncEngine) SyncExitNode(ctx context.Context, exitNodeID int) (int, error) {
	siteIDs, err := e.store.GetSiteIDsForExitNode(exitNodeID)
	if err != nil {
		return 0, fmt.Errorf("load sites for exit node %d: %w", exitNodeID, err)
	}
	clientSet := make(map[int]struct{})
	for _, siteID := range siteIDs {
		clientIDs, err := e.store.GetClientIDsForSite(siteID)
		if err != nil {
			logging.Warnf("sync: load clients for site %d failed: %v", siteID, err)
			continue
		}
		for _, id := range clientIDs {
			clientSet[id] = struct{}{}
		}
	}
	ids := mapst.Keys(clientSet)
	sort.Ints(ids)
	return e.syncMany(ctx, ids), nil
}

func (e *SyncEngine) syncMany(ctx context.Context, clientIDs []int) int {
	synced := 0
	for _, id := range clientIDs {
		client, err := e.loadClient(id)
		if err != nil {
			logging.Warnf("sync: skipping client %d: %v", id, err)
			continue
		}
		if err := e.SyncClient(ctx, client); err != nil {
			logging.Warnf("sync: snapshot for client %d failed: %v", id, err)
			continue
		}
		synced++
	}
	return synced
}

func (e *SyncEngine) loadClient(clientID int) (*model.Client, error) {
	client, err := e.store.GetClientByID(clientID)
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("client %d", clientID))
	}
	return client, nil
}

func dedupIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
