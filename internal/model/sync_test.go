// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSyncMessageWireShape(t *testing.T) {
	msg := NewSyncMessage(TopologySnapshot{
		Sites: []SiteConfig{{SiteID: 10, Name: "dc-east", PublicKey: "pk-a", Endpoint: "a.example:51820", Relay: true}},
		ExitNodes: []ExitNodePeer{
			{PublicKey: "pk-a", RelayPort: 51820, Endpoint: "a.example:51820", SiteIDs: []int{10, 11}},
		},
	})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"type":"topology/sync"`, `"siteIds":[10,11]`, `"siteId":10`, `"relay":true`} {
		if !strings.Contains(s, want) {
			t.Errorf("wire form missing %s:\n%s", want, s)
		}
	}
}

func TestEmptySnapshotMarshalsAsArrays(t *testing.T) {
	msg := NewSyncMessage(TopologySnapshot{Sites: []SiteConfig{}, ExitNodes: []ExitNodePeer{}})
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	// Clients replace state wholesale; an empty fleet must arrive as [] and
	// not null.
	if !strings.Contains(s, `"sites":[]`) || !strings.Contains(s, `"exitNodes":[]`) {
		t.Errorf("empty snapshot did not marshal as arrays:\n%s", s)
	}
}
