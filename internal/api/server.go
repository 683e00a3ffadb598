// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package api exposes the control-plane operations over HTTP. Handlers are
// thin adapters: decode, call core, map the error taxonomy to status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/logging"
	"github.com/relayfleet/gatewarden/internal/notify"
)

// Server wires the HTTP surface to the core services.
type Server struct {
	admission *core.AdmissionController
	recovery  *core.IdentityRecoveryService
	sync      *core.SyncEngine
	registry  *notify.Registry
	httpSrv   *http.Server
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, admission *core.AdmissionController, recovery *core.IdentityRecoveryService, syncEngine *core.SyncEngine, registry *notify.Registry) *Server {
	s := &Server{
		admission: admission,
		recovery:  recovery,
		sync:      syncEngine,
		registry:  registry,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /v1/recovery", s.handleRecovery)
	mux.HandleFunc("POST /v1/clients/{id}/block", s.handleBlock)
	mux.HandleFunc("POST /v1/clients/{id}/unblock", s.handleUnblock)
	mux.HandleFunc("POST /v1/clients/{id}/approval", s.handleApproval)
	mux.HandleFunc("POST /v1/clients/{id}/sync", s.handleSyncClient)
	mux.HandleFunc("POST /v1/sites/{id}/sync", s.handleSyncSite)
	mux.HandleFunc("POST /v1/exit-nodes/{id}/sync", s.handleSyncExitNode)
	mux.HandleFunc("GET /v1/clients/{id}/events", s.handleEvents)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// ListenAndServe blocks serving requests until Shutdown is called or the
// listener fails.
func (s *Server) ListenAndServe() error {
	logging.Infof("api: listening on %s", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the core error taxonomy onto HTTP statuses. Deterministic
// failures carry their message; everything else is logged and surfaces as an
// opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		logging.Errorf("api: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
