// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/logging"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recoveryRequest struct {
	UserID   int    `json:"userId"`
	Platform string `json:"platform"`
}

type recoveryResponse struct {
	ClientID int    `json:"clientId"`
	Secret   string `json:"secret"`
}

// handleRecovery performs identity recovery. The plaintext secret appears in
// this response and nowhere else.
func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %v", core.ErrValidation, err))
		return
	}
	result, err := s.recovery.Recover(r.Context(), req.UserID, req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	var secret string
	_ = result.Secret.Use(func(b []byte) error {
		secret = string(b)
		return nil
	})
	writeJSON(w, http.StatusOK, recoveryResponse{ClientID: result.ClientID, Secret: secret})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.admission.Block(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.admission.Unblock(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approvalRequest struct {
	State string `json:"state"`
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %v", core.ErrValidation, err))
		return
	}
	if err := s.admission.SetApproval(r.Context(), id, req.State); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSyncClient triggers a best-effort snapshot push. 202 means the sync
// was computed and handed to the push channel, not that the client saw it.
func (s *Server) handleSyncClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sync.SyncClientByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSyncSite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := s.sync.SyncSite(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"clients": n})
}

func (s *Server) handleSyncExitNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := s.sync.SyncExitNode(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"clients": n})
}

// handleEvents attaches the caller as the client's live connection and
// streams sync messages as server-sent events until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	ch, detach := s.registry.Attach(id)
	defer detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	logging.Debugf("api: client %d attached for events", id)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				// Displaced by a newer connection for the same client.
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				logging.Errorf("api: encode sync message for client %d: %v", id, err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", core.ErrValidation, raw)
	}
	return id, nil
}
