// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
)

var syncShowSnapshot bool

// syncCmd triggers topology re-syncs. Outside of 'serve' there are no live
// connections, so these invocations compute snapshots and, with --show,
// print them; they are mainly useful for inspection and testing.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger topology syncs",
}

func init() {
	syncClientCmd.Flags().BoolVar(&syncShowSnapshot, "show", false, "Print the computed snapshot as JSON")
	syncCmd.AddCommand(syncClientCmd, syncSiteCmd, syncExitNodeCmd)
}

var syncClientCmd = &cobra.Command{
	Use:     "client <id>",
	Short:   "Sync a single client",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		st := db.Default()
		engine := newSyncEngine(st)
		if syncShowSnapshot {
			client, err := st.GetClientByID(id)
			if err != nil {
				log.Fatalf("%s", i18n.T("client.not_found", id))
			}
			snapshot, err := engine.BuildSnapshot(cmd.Context(), client)
			if err != nil {
				log.Fatalf("%v", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(snapshot)
			return
		}
		if err := engine.SyncClientByID(cmd.Context(), id); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("sync.pushed", id))
	},
}

var syncSiteCmd = &cobra.Command{
	Use:     "site <id>",
	Short:   "Sync every client associated with a site",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		n, err := newSyncEngine(db.Default()).SyncSite(cmd.Context(), id)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("sync.site_done", n, id))
	},
}

var syncExitNodeCmd = &cobra.Command{
	Use:     "exit-node <id>",
	Short:   "Sync every client behind an exit node",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		n, err := newSyncEngine(db.Default()).SyncExitNode(cmd.Context(), id)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("sync.exit_node_done", n, id))
	},
}
