// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func testDefaults() map[string]any {
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./gatewarden.db",
		"relay.port":    51820,
		"listen":        ":8480",
		"language":      "en",
	}
}

func TestLoadConfigReportsMissingFile(t *testing.T) {
	// Point every search path at empty directories so no stray gatewarden.yaml
	// on the host can satisfy the lookup.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cmd := &cobra.Command{Use: "test"}
	c, err := LoadConfig[Config](cmd, testDefaults(), nil)
	if err == nil {
		t.Fatalf("expected a config-file-not-found error, got nil")
	}
	if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		t.Fatalf("err = %v, want viper.ConfigFileNotFoundError", err)
	}

	// The returned config is still fully usable from defaults; the error only
	// signals that no file backed it.
	if c.Database.Type != "sqlite" || c.Relay.Port != 51820 || c.Listen != ":8480" {
		t.Errorf("defaults not applied alongside not-found error: %+v", c)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatewarden.yaml")
	content := []byte("database:\n  type: postgres\n  dsn: postgres://gw@localhost/gw\nlisten: \":9000\"\n")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{Use: "test"}
	c, err := LoadConfig[Config](cmd, testDefaults(), &path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if c.Database.Type != "postgres" || c.Listen != ":9000" {
		t.Errorf("file values not loaded: %+v", c)
	}
	// Keys the file omits keep their defaults.
	if c.Relay.Port != 51820 || c.Language != "en" {
		t.Errorf("defaults not merged under file: %+v", c)
	}
}
