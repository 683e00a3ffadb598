// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Gatewarden.
//
// Usage:
//
//	go run . [flags]
//	./gatewarden [flags]
//
// This launches the Gatewarden CLI. See --help for options.
package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/relayfleet/gatewarden/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Errorf("gatewarden: %v", err)
		os.Exit(1)
	}
}
