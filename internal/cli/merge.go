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

package cli

import (
	"github.com/spf13/cobra"

	"dirpx.dev/flatpack/merge"
	"dirpx.dev/flatpack/wire"
)

type mergeOpts struct {
	output string
	format string
	indent bool
}

// mergeCommand creates the "merge" command.
func (c *CLI) mergeCommand() *cobra.Command {
	var opts mergeOpts

	cmd := &cobra.Command{
		Use:   "merge <primary> <secondary> [more...]",
		Short: "Merge packs that share entities by identity",
		Long: `Merge folds the packs left to right. The root value comes from the first
pack; entities present in several packs keep the copy of the earliest one.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "format of stdin and stdout (json or cbor)")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "indent JSON output")

	return cmd
}

func (c *CLI) runMerge(cmd *cobra.Command, args []string, opts mergeOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	packs := make([]wire.Node, 0, len(args))
	for _, path := range args {
		n, err := readNode(path, opts.format, cmd.InOrStdin())
		if err != nil {
			return err
		}
		c.Logger.Debug("pack read", "path", path)
		packs = append(packs, n)
	}

	out, err := merge.MergeAll(packs, merge.WithIdentityKey(cfg.IdentityKey))
	if err != nil {
		return err
	}
	c.Logger.Info("merged", "packs", len(packs), "entities", countEntities(out))
	return writeNode(opts.output, opts.format, out, opts.indent, cmd.OutOrStdout())
}
