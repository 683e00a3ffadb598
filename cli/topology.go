// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relayfleet/gatewarden/internal/db"
)

// siteCmd groups site management subcommands.
var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage sites and their client associations",
}

// exitNodeCmd groups exit node management subcommands.
var exitNodeCmd = &cobra.Command{
	Use:   "exit-node",
	Short: "Manage exit nodes",
}

func init() {
	siteCmd.AddCommand(
		siteListCmd,
		siteAddCmd,
		siteAssignCmd,
		siteAssociateCmd,
		siteDissociateCmd,
	)
	exitNodeCmd.AddCommand(
		exitNodeListCmd,
		exitNodeAddCmd,
	)
}

var siteListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all sites",
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		sites, err := db.Default().GetAllSites()
		if err != nil {
			log.Fatalf("error fetching sites: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tORG\tEXIT NODE")
		for _, s := range sites {
			exitNode := "-"
			if s.ExitNodeID != nil {
				exitNode = fmt.Sprintf("%d", *s.ExitNodeID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.OrgID, exitNode)
		}
		_ = w.Flush()
	},
}

var siteAddCmd = &cobra.Command{
	Use:     "add <org-id> <name>",
	Short:   "Create a site",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id, err := db.Default().AddSite(args[0], args[1], nil)
		if err != nil {
			log.Fatalf("error adding site: %v", err)
		}
		fmt.Printf("Site %d created.\n", id)
	},
}

// siteAssignCmd assigns or clears a site's exit node, then re-syncs the
// affected clients so the fleet sees the new reachability.
var siteAssignCmd = &cobra.Command{
	Use:     "assign <site-id> <exit-node-id|none>",
	Short:   "Assign a site to an exit node",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		siteID := parseIDArg(args[0])
		var nodeID *int
		if args[1] != "none" {
			id := parseIDArg(args[1])
			nodeID = &id
		}
		st := db.Default()
		if err := st.AssignSiteExitNode(siteID, nodeID); err != nil {
			log.Fatalf("error assigning site %d: %v", siteID, err)
		}
		n, err := newSyncEngine(st).SyncSite(cmd.Context(), siteID)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("Site %d updated; %d client(s) re-synced.\n", siteID, n)
	},
}

var siteAssociateCmd = &cobra.Command{
	Use:     "associate <client-id> <site-id>",
	Short:   "Grant a client access to a site",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		clientID := parseIDArg(args[0])
		siteID := parseIDArg(args[1])
		if err := db.Default().AssociateClientWithSite(clientID, siteID); err != nil {
			log.Fatalf("error associating client %d with site %d: %v", clientID, siteID, err)
		}
		fmt.Printf("Client %d associated with site %d.\n", clientID, siteID)
	},
}

var siteDissociateCmd = &cobra.Command{
	Use:     "dissociate <client-id> <site-id>",
	Short:   "Revoke a client's access to a site",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		clientID := parseIDArg(args[0])
		siteID := parseIDArg(args[1])
		if err := db.Default().DissociateClientFromSite(clientID, siteID); err != nil {
			log.Fatalf("error dissociating client %d from site %d: %v", clientID, siteID, err)
		}
		fmt.Printf("Client %d dissociated from site %d.\n", clientID, siteID)
	},
}

var exitNodeListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all exit nodes",
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		nodes, err := db.Default().GetAllExitNodes()
		if err != nil {
			log.Fatalf("error fetching exit nodes: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tENDPOINT\tPUBLIC KEY")
		for _, n := range nodes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.Name, n.Endpoint, n.PublicKey)
		}
		_ = w.Flush()
	},
}

var exitNodeAddCmd = &cobra.Command{
	Use:     "add <name> <public-key> <endpoint>",
	Short:   "Register an exit node",
	Args:    cobra.ExactArgs(3),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id, err := db.Default().AddExitNode(args[0], args[1], args[2])
		if err != nil {
			log.Fatalf("error adding exit node: %v", err)
		}
		fmt.Printf("Exit node %d registered.\n", id)
	},
}
