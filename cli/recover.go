// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
)

// recoverCmd re-issues a client secret from a device fingerprint. The
// plaintext secret is printed exactly once and never stored.
var recoverCmd = &cobra.Command{
	Use:   "recover <user-id> <platform-fingerprint>",
	Short: "Recover a client identity and issue a fresh secret",
	Long: `Matches the given device fingerprint against the user's registered
clients. If exactly one identity matches, a new secret is generated,
its hash replaces the stored one, and the plaintext is printed once.
An ambiguous match is refused; resolve it manually before retrying.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		userID := parseIDArg(args[0])
		svc := core.NewIdentityRecoveryService(db.Default())
		result, err := svc.Recover(cmd.Context(), userID, args[1])
		switch {
		case err == nil:
		case errors.Is(err, core.ErrNotFound):
			log.Fatalf("%s", i18n.T("recover.not_found"))
		case errors.Is(err, core.ErrConflict):
			log.Fatalf("%s", i18n.T("recover.conflict"))
		default:
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("recover.success", result.ClientID))
		_ = result.Secret.Use(func(b []byte) error {
			fmt.Printf("%s\n", b)
			return nil
		})
		result.Secret.Zero()
	},
}
