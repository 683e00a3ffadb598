// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Gatewarden using the Cobra
// library. It defines the root command, subcommands (serve, client, recover,
// sync, backup, restore) and the shared service bootstrap.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relayfleet/gatewarden/buildvars"
	"github.com/relayfleet/gatewarden/internal/config"
	"github.com/relayfleet/gatewarden/internal/db"
	"github.com/relayfleet/gatewarden/internal/i18n"
	"github.com/relayfleet/gatewarden/internal/logging"
)

var cfgFile string
var verbose bool
var fullRestore bool

var appConfig config.Config

// setupDefaultServices loads configuration, initializes i18n and opens the
// database. It runs as PreRunE on every command that needs services.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./gatewarden.db",
		"relay.port":    51820,
		"listen":        ":8480",
		"language":      "en",
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A "file not found" error is expected on first run; create a default
	// config so subsequent runs have a persisted file to inspect.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Guard against empty values in a hand-edited config file.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Relay.Port == 0 {
		appConfig.Relay.Port = defaults["relay.port"].(int)
	}
	if appConfig.Listen == "" {
		appConfig.Listen = defaults["listen"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	i18n.Init(appConfig.Language)

	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package calls this and
// handles process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command. Used for the
// real binary and for fresh instances in isolated tests.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatewarden",
		Short: "Gatewarden is a control plane for tunnel-client fleets.",
		Long: `Gatewarden tracks which private sites each tunnel client may reach
and keeps the fleet's network topology in sync. The database is the
source of truth; clients receive full topology snapshots over their
live connections and replace local state wholesale.

Running without a subcommand prints help; 'gatewarden serve' starts
the admin API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				db.SetDebug(true)
				logging.SetVerbose(true)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = resolveBuildVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets -v for DB logs)")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)
	applyDefaultFlags(cmd)

	applyDefaultFlags(serveCmd)
	applyDefaultFlags(clientCmd)
	applyDefaultFlags(siteCmd)
	applyDefaultFlags(exitNodeCmd)
	applyDefaultFlags(recoverCmd)
	applyDefaultFlags(syncCmd)
	applyDefaultFlags(backupCmd)
	applyDefaultFlags(restoreCmd)
	applyDefaultFlags(dbMaintainCmd)
	applyDefaultFlags(auditLogCmd)
	if restoreCmd.Flags().Lookup("full") == nil {
		restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Confirm the full, destructive restore (wipes all existing data first)")
	}

	cmd.AddCommand(
		serveCmd,
		clientCmd,
		siteCmd,
		exitNodeCmd,
		recoverCmd,
		syncCmd,
		backupCmd,
		restoreCmd,
		dbMaintainCmd,
		auditLogCmd,
	)

	return cmd
}

func applyDefaultFlags(cmd *cobra.Command) {
	// NewRootCmd may be called multiple times in tests while subcommands are
	// package-level; pflag panics on duplicate definitions, so check first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./gatewarden.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only honor the path if the user explicitly set --config.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// resolveBuildVersion prefers the ldflags version and falls back to module
// build info for 'go install' builds.
func resolveBuildVersion() string {
	v := buildvars.VersionOrDefault("dev")
	if v != "dev" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return v
}
