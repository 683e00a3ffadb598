// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
	"github.com/relayfleet/gatewarden/internal/model"
)

// clientCmd groups client fleet management subcommands.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage tunnel clients",
}

func init() {
	clientCmd.AddCommand(
		clientListCmd,
		clientShowCmd,
		clientAddCmd,
		clientBlockCmd,
		clientUnblockCmd,
		clientApproveCmd,
		clientArchiveCmd,
	)
}

var clientListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all registered clients",
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		clients, err := db.Default().GetAllClients()
		if err != nil {
			log.Fatalf("error fetching clients: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, i18n.T("client.list_header"))
		for _, c := range clients {
			approval := "-"
			if c.ApprovalState != nil {
				approval = *c.ApprovalState
			}
			lastSeen := "-"
			if !c.LastSeen.IsZero() {
				lastSeen = c.LastSeen.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\t%s\n", c.ID, c.Name, c.OrgID, c.Blocked, approval, lastSeen)
		}
		_ = w.Flush()
	},
}

var clientShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one client in detail",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		client, err := db.Default().GetClientByID(id)
		if err != nil {
			log.Fatalf("%s", i18n.T("client.not_found", id))
		}
		fmt.Printf("ID:        %d\n", client.ID)
		fmt.Printf("Name:      %s\n", client.Name)
		fmt.Printf("User:      %d\n", client.UserID)
		fmt.Printf("Org:       %s\n", client.OrgID)
		fmt.Printf("Blocked:   %t\n", client.Blocked)
		approval := "-"
		if client.ApprovalState != nil {
			approval = *client.ApprovalState
		}
		fmt.Printf("Approval:  %s\n", approval)
		fmt.Printf("Archived:  %t\n", client.Archived)
		if !client.LastSeen.IsZero() {
			fmt.Printf("Last seen: %s\n", client.LastSeen.Format("2006-01-02 15:04:05"))
		}
		sites, err := db.Default().GetSitesForClient(client.ID)
		if err == nil && len(sites) > 0 {
			fmt.Println("Sites:")
			seen := map[int]bool{}
			for _, s := range sites {
				if seen[s.ID] {
					continue
				}
				seen[s.ID] = true
				fmt.Printf("  %d  %s\n", s.ID, s.Name)
			}
		}
	},
}

var clientAddCmd = &cobra.Command{
	Use:     "add <name> <user-id> <org-id> <public-key>",
	Short:   "Register a new client",
	Args:    cobra.ExactArgs(4),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		userID := parseIDArg(args[1])
		id, err := db.Default().AddClient(args[0], userID, args[2], args[3], "")
		if err != nil {
			log.Fatalf("error adding client: %v", err)
		}
		fmt.Printf("Client %d registered.\n", id)
	},
}

var clientBlockCmd = &cobra.Command{
	Use:     "block <id>",
	Short:   "Block a client from the fleet",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		admission := core.NewAdmissionController(db.Default())
		if err := admission.Block(cmd.Context(), id); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("client.blocked", id))
	},
}

var clientUnblockCmd = &cobra.Command{
	Use:     "unblock <id>",
	Short:   "Unblock a client and reset its approval",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		admission := core.NewAdmissionController(db.Default())
		if err := admission.Unblock(cmd.Context(), id); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("client.unblocked", id))
	},
}

var clientApproveCmd = &cobra.Command{
	Use:     "approve <id> <pending|approved|rejected>",
	Short:   "Record an approval decision for a client",
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		admission := core.NewAdmissionController(db.Default())
		if err := admission.SetApproval(cmd.Context(), id, args[1]); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("client.approval_set", id, args[1]))
	},
}

var clientArchiveCmd = &cobra.Command{
	Use:     "archive <id>",
	Short:   "Archive a decommissioned client",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseIDArg(args[0])
		if err := db.Default().ArchiveClient(id); err != nil {
			log.Fatalf("error archiving client %d: %v", id, err)
		}
		fmt.Printf("Client %d archived.\n", id)
	},
}

// newSyncEngine assembles the sync engine with a no-op push channel for
// one-shot CLI invocations. Live pushes only happen inside 'serve'.
func newSyncEngine(st db.Store) *core.SyncEngine {
	resolver := core.NewStoreSiteConfigResolver(st)
	return core.NewSyncEngine(st, resolver, noopPush{}, appConfig.Relay.Port)
}

type noopPush struct{}

func (noopPush) Send(ctx context.Context, clientID int, msg model.SyncMessage) error {
	return nil
}

func parseIDArg(raw string) int {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		log.Fatalf("invalid id %q", raw)
	}
	return id
}
