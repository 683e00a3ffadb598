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

	"github.com/relayfleet/gatewarden/internal/core"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
)

// backupCmd exports the full database as zstd-compressed JSON.
var backupCmd = &cobra.Command{
	Use:     "backup <file>",
	Short:   "Write a compressed backup of all data",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		data, err := core.Backup(cmd.Context(), db.Default())
		if err != nil {
			log.Fatalf("export backup: %v", err)
		}
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("create backup file: %v", err)
		}
		defer func() { _ = f.Close() }()
		if err := core.WriteBackup(cmd.Context(), data, f); err != nil {
			log.Fatalf("write backup: %v", err)
		}
		fmt.Println(i18n.T("backup.written", path))
	},
}

// restoreCmd replaces all data with a backup's contents. It refuses to run
// without --full so nobody wipes a database by accident.
var restoreCmd = &cobra.Command{
	Use:     "restore <file>",
	Short:   "Restore all data from a backup (destructive)",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		if !fullRestore {
			log.Fatalf("restore is destructive; pass --full to confirm")
		}
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("open backup file: %v", err)
		}
		defer func() { _ = f.Close() }()
		if err := core.Restore(cmd.Context(), f, db.Default()); err != nil {
			log.Fatalf("restore: %v", err)
		}
		fmt.Println(i18n.T("restore.done"))
	},
}

// dbMaintainCmd runs engine-specific maintenance (vacuum, optimize,
// integrity checks).
var dbMaintainCmd = &cobra.Command{
	Use:     "db-maintain",
	Short:   "Run database maintenance",
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.RunDBMaintenance(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			log.Fatalf("maintenance: %v", err)
		}
		fmt.Println(i18n.T("maintain.done"))
	},
}

// auditLogCmd prints the audit trail of mutating operations.
var auditLogCmd = &cobra.Command{
	Use:     "audit-log",
	Short:   "Show the audit trail",
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := db.Default().GetAllAuditLogEntries()
		if err != nil {
			log.Fatalf("error fetching audit log: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tUSER\tACTION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		_ = w.Flush()
	},
}
