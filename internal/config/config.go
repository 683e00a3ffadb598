// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists the Gatewarden configuration. Precedence
// is flags over environment (GATEWARDEN_*) over config file over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// RelayConfig carries the process-wide relay settings shared by all exit
// nodes. The relay port is deliberately not stored per node.
type RelayConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// Config is the root configuration for the control plane.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Relay    RelayConfig    `mapstructure:"relay" yaml:"relay"`
	Listen   string         `mapstructure:"listen" yaml:"listen"`
	Language string         `mapstructure:"language" yaml:"language"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Gatewarden")
		default: // Linux, macOS, etc.
			configDir = "/etc/gatewarden"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "gatewarden")
	}

	return filepath.Join(configDir, "gatewarden.yaml"), nil
}

// LoadConfig builds a config value of type T from defaults, config file,
// environment and the command's flags, in ascending precedence.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("gatewarden")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file-based
	// configuration.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for gatewarden.yaml in current dir

	// A missing config file is not fatal, but callers need to observe it so
	// they can seed a default file on first run. The error is carried through
	// the rest of the load and returned alongside the fully resolved config.
	var confNotFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		confNotFound = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("gatewarden")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, confNotFound
}

// WriteConfigFile persists the config to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 because the DSN may contain credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}
