// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/relayfleet/gatewarden/internal/model"
)

// StoreSiteConfigResolver resolves a client's reachable sites straight from
// the association cache. A site only yields a config while it is assigned to
// an exit node; unassigned sites have no reachable endpoint yet.
type StoreSiteConfigResolver struct {
	store Store
}

// NewStoreSiteConfigResolver returns a resolver backed by st.
func NewStoreSiteConfigResolver(st Store) *StoreSiteConfigResolver {
	return &StoreSiteConfigResolver{store: st}
}

// ResolveSiteConfigs implements SiteConfigResolver. The association cache may
// hold redundant rows, so sites are deduplicated by ID before resolution.
// Results are ordered by site ID for stable wire output.
func (r *StoreSiteConfigResolver) ResolveSiteConfigs(ctx context.Context, client *model.Client, relay bool) ([]model.SiteConfig, error) {
	sites, err := r.store.GetSitesForClient(client.ID)
	if err != nil {
		return nil, fmt.Errorf("load sites for %s: %w", client, err)
	}

	bySiteID := make(map[int]model.Site, len(sites))
	nodeIDSet := make(map[int]struct{})
	for _, site := range sites {
		if site.ExitNodeID == nil {
			continue
		}
		bySiteID[site.ID] = site
		nodeIDSet[*site.ExitNodeID] = struct{}{}
	}

	nodeIDs := make([]int, 0, len(nodeIDSet))
	for id := range nodeIDSet {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Ints(nodeIDs)
	nodes, err := r.store.GetExitNodesByIDs(nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("load exit nodes for %s: %w", client, err)
	}
	nodesByID := make(map[int]model.ExitNode, len(nodes))
	for _, n := range nodes {
		nodesByID[n.ID] = n
	}

	siteIDs := make([]int, 0, len(bySiteID))
	for id := range bySiteID {
		siteIDs = append(siteIDs, id)
	}
	sort.Ints(siteIDs)

	configs := make([]model.SiteConfig, 0, len(siteIDs))
	for _, siteID := range siteIDs {
		site := bySiteID[siteID]
		node, ok := nodesByID[*site.ExitNodeID]
		if !ok {
			continue
		}
		configs = append(configs, model.SiteConfig{
			SiteID:    site.ID,
			Name:      site.Name,
			PublicKey: node.PublicKey,
			Endpoint:  node.Endpoint,
			Relay:     relay,
		})
	}
	return configs, nil
}
