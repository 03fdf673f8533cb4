/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package cli implements the flatpack command-line interface: merging,
// converting and inspecting packed envelopes stored as JSON or CBOR files.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"dirpx.dev/flatpack/apis"
	"dirpx.dev/flatpack/config"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "flatpack",
		Short:        "Flatpack merges and inspects packed object graphs",
		Long:         `Flatpack works on packed envelopes: a root value plus every entity it references, grouped by type and keyed by identity.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML or TOML configuration file")

	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.statsCommand())

	return root
}

// config returns the configuration named by --config, or the defaults.
func (c *CLI) config() (apis.Config, error) {
	if c.configPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return apis.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "identity", cfg.IdentityKey)
	return cfg, nil
}
