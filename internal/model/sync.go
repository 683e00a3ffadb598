// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// MessageTypeTopologySync identifies a full topology snapshot push.
const MessageTypeTopologySync = "topology/sync"

// SiteConfig is the peer configuration a client needs to reach one site.
// It is produced by the site-config resolver, which owns per-site access
// control; the sync engine treats the list as opaque.
type SiteConfig struct {
	SiteID     int    `json:"siteId"`
	Name       string `json:"name"`
	PublicKey  string `json:"publicKey"`
	Endpoint   string `json:"endpoint"`
	ServerIP   string `json:"serverIP,omitempty"`
	ServerPort int    `json:"serverPort,omitempty"`
	Relay      bool   `json:"relay"`
}

// ExitNodePeer is one resolved exit node in a topology snapshot. SiteIDs is
// a set: no duplicates, even when the association cache holds redundant rows.
type ExitNodePeer struct {
	PublicKey string `json:"publicKey"`
	RelayPort int    `json:"relayPort"`
	Endpoint  string `json:"endpoint"`
	SiteIDs   []int  `json:"siteIds"`
}

// TopologySnapshot is the payload of one sync message: the full set of peers
// a single client may reach. Clients replace their local state wholesale, so
// redelivery and reordering are harmless.
type TopologySnapshot struct {
	Sites     []SiteConfig   `json:"sites"`
	ExitNodes []ExitNodePeer `json:"exitNodes"`
}

// SyncMessage is the transient wire envelope pushed over a client's live
// channel. It is never persisted.
type SyncMessage struct {
	Type string           `json:"type"`
	Data TopologySnapshot `json:"data"`
}

// NewSyncMessage assembles a topology/sync envelope for the given snapshot.
func NewSyncMessage(data TopologySnapshot) SyncMessage {
	return SyncMessage{Type: MessageTypeTopologySync, Data: data}
}
