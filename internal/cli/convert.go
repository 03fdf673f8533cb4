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
)

type convertOpts struct {
	from   string
	to     string
	indent bool
}

// convertCommand creates the "convert" command.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a pack between JSON and CBOR",
		Long: `Convert re-encodes a file. Formats follow the extensions (.json, .jsonc,
.cbor, each optionally followed by .zst); "-" reads stdin or writes stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := readNode(args[0], opts.from, cmd.InOrStdin())
			if err != nil {
				return err
			}
			c.Logger.Debug("converting", "from", args[0], "to", args[1])
			return writeNode(args[1], opts.to, n, opts.indent, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "json", "format of stdin (json or cbor)")
	cmd.Flags().StringVar(&opts.to, "to", "json", "format of stdout (json or cbor)")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "indent JSON output")

	return cmd
}
