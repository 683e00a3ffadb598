// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relayfleet/gatewarden/internal/api"
	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
	"github.com/relayfleet/gatewarden/internal/notify"
)

// serveCmd runs the admin API and the live-connection endpoint until
// interrupted.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the Gatewarden admin API",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := db.Default()
		registry := notify.NewRegistry()
		resolver := core.NewStoreSiteConfigResolver(st)
		engine := core.NewSyncEngine(st, resolver, registry, appConfig.Relay.Port)
		admission := core.NewAdmissionController(st)
		recovery := core.NewIdentityRecoveryService(st)

		srv := api.NewServer(appConfig.Listen, admission, recovery, engine, registry)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		fmt.Println(i18n.T("serve.listening", appConfig.Listen))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-sigCh:
		}

		fmt.Println(i18n.T("serve.shutdown"))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown: %v", err)
			return err
		}
		return nil
	},
}
