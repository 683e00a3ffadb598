// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/model"
	"github.com/relayfleet/gatewarden/internal/notify"
)

// apiStore is an in-memory core.Store for handler tests.
type apiStore struct {
	clients    map[int]*model.Client
	candidates []model.RecoveryCandidate
}

func newAPIStore() *apiStore {
	return &apiStore{clients: map[int]*model.Client{}}
}

func (s *apiStore) GetClientByID(id int) (*model.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *apiStore) BlockClient(id int) error {
	c, ok := s.clients[id]
	if !ok {
		return db.ErrNotFound
	}
	if c.Blocked {
		return db.ErrAlreadyBlocked
	}
	c.Blocked = true
	return nil
}

func (s *apiStore) UnblockClient(id int) error {
	c, ok := s.clients[id]
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

func (s *apiStore) SetClientApproval(id int, state *string) error {
	c, ok := s.clients[id]
	if !ok {
		return db.ErrNotFound
	}
	c.ApprovalState = state
	return nil
}

func (s *apiStore) SwapClientSecretHash(id int, oldHash, newHash string) (bool, error) {
	c, ok := s.clients[id]
	if !ok || c.SecretHash != oldHash {
		return false, nil
	}
	c.SecretHash = newHash
	return true, nil
}

func (s *apiStore) FindRecoveryCandidates(userID int, platform string) ([]model.RecoveryCandidate, error) {
	return s.candidates, nil
}

func (s *apiStore) GetSitesForClient(clientID int) ([]model.Site, error)  { return nil, nil }
func (s *apiStore) GetExitNodesByIDs(ids []int) ([]model.ExitNode, error) { return nil, nil }
func (s *apiStore) GetClientIDsForSite(siteID int) ([]int, error)         { return nil, nil }
func (s *apiStore) GetSiteIDsForExitNode(exitNodeID int) ([]int, error)   { return nil, nil }
func (s *apiStore) ExportDataForBackup() (*model.BackupData, error)       { return nil, nil }
func (s *apiStore) ImportDataFromBackup(data *model.BackupData) error     { return nil }

func newTestServer(st *apiStore) *Server {
	registry := notify.NewRegistry()
	resolver := core.NewStoreSiteConfigResolver(st)
	engine := core.NewSyncEngine(st, resolver, registry, 51820)
	return NewServer(":0", core.NewAdmissionController(st), core.NewIdentityRecoveryService(st), engine, registry)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(newAPIStore())
	w := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestUnblockEndpoint(t *testing.T) {
	st := newAPIStore()
	approved := model.ApprovalApproved
	st.clients[1] = &model.Client{ID: 1, Blocked: true, ApprovalState: &approved}
	st.clients[2] = &model.Client{ID: 2}
	srv := newTestServer(st)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"blocked client", "/v1/clients/1/unblock", http.StatusNoContent},
		{"not blocked", "/v1/clients/2/unblock", http.StatusBadRequest},
		{"unknown client", "/v1/clients/99/unblock", http.StatusNotFound},
		{"bad id", "/v1/clients/zero/unblock", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, tt.path, "")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if st.clients[1].Blocked || st.clients[1].ApprovalState != nil {
		t.Errorf("unblock did not clear state: %+v", st.clients[1])
	}
}

func TestRecoveryEndpoint(t *testing.T) {
	st := newAPIStore()
	st.clients[7] = &model.Client{ID: 7, SecretHash: "old-hash"}
	st.candidates = []model.RecoveryCandidate{{ClientID: 7, SecretHash: "old-hash"}}
	srv := newTestServer(st)

	w := doRequest(t, srv, http.MethodPost, "/v1/recovery", `{"userId":1,"platform":"linux-abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var resp struct {
		ClientID int    `json:"clientId"`
		Secret   string `json:"secret"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ClientID != 7 {
		t.Errorf("clientId = %d, want 7", resp.ClientID)
	}
	if resp.Secret == "" || resp.Secret == "[SECRET]" {
		t.Errorf("response must carry the plaintext secret, got %q", resp.Secret)
	}
}

func TestRecoveryEndpointErrors(t *testing.T) {
	st := newAPIStore()
	st.clients[7] = &model.Client{ID: 7, SecretHash: "hash-a"}
	st.clients[8] = &model.Client{ID: 8, SecretHash: "hash-b"}
	srv := newTestServer(st)

	tests := []struct {
		name       string
		body       string
		candidates []model.RecoveryCandidate
		want       int
	}{
		{"no match", `{"userId":1,"platform":"x"}`, nil, http.StatusNotFound},
		{"ambiguous", `{"userId":1,"platform":"x"}`, []model.RecoveryCandidate{
			{ClientID: 7, SecretHash: "hash-a"},
			{ClientID: 8, SecretHash: "hash-b"},
		}, http.StatusConflict},
		{"bad user", `{"userId":0,"platform":"x"}`, nil, http.StatusBadRequest},
		{"malformed body", `{`, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st.candidates = tt.candidates
			w := doRequest(t, srv, http.MethodPost, "/v1/recovery", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSyncEndpoint(t *testing.T) {
	st := newAPIStore()
	st.clients[1] = &model.Client{ID: 1}
	srv := newTestServer(st)

	w := doRequest(t, srv, http.MethodPost, "/v1/clients/1/sync", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", w.Code, w.Body.String())
	}
	w = doRequest(t, srv, http.MethodPost, "/v1/clients/99/sync", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestApprovalEndpoint(t *testing.T) {
	st := newAPIStore()
	st.clients[1] = &model.Client{ID: 1}
	srv := newTestServer(st)

	w := doRequest(t, srv, http.MethodPost, "/v1/clients/1/approval", `{"state":"approved"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (body %s)", w.Code, w.Body.String())
	}
	w = doRequest(t, srv, http.MethodPost, "/v1/clients/1/approval", `{"state":"banana"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSyncDeliversToAttachedClient(t *testing.T) {
	st := newAPIStore()
	st.clients[1] = &model.Client{ID: 1}
	srv := newTestServer(st)

	ch, detach := srv.registry.Attach(1)
	defer detach()

	w := doRequest(t, srv, http.MethodPost, "/v1/clients/1/sync", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	select {
	case msg := <-ch:
		if msg.Type != model.MessageTypeTopologySync {
			t.Errorf("message type = %q", msg.Type)
		}
	default:
		t.Fatalf("no message delivered to attached client")
	}
}
