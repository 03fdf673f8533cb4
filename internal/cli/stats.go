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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dirpx.dev/flatpack/wire"
)

// statsCommand creates the "stats" command.
func (c *CLI) statsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats <pack>",
		Short: "Show the entity buckets and messages of a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := readNode(args[0], format, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), n)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "format of stdin (json or cbor)")

	return cmd
}

// printStats writes one line per data bucket, in pack order, then the
// message counts.
func printStats(w io.Writer, n wire.Node) error {
	env, ok := n.(*wire.Object)
	if !ok {
		if wire.IsNull(n) {
			_, err := fmt.Fprintln(w, "empty pack")
			return err
		}
		return fmt.Errorf("not a pack: %s", wire.KindOf(n))
	}

	if data, ok := env.Get(wire.DataKey); ok {
		if buckets, ok := data.(*wire.Object); ok {
			var err error
			buckets.Range(func(name string, b wire.Node) bool {
				seq, _ := b.(wire.Sequence)
				_, err = fmt.Fprintf(w, "%-20s %d\n", name, len(seq))
				return err == nil
			})
			if err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "entities: %d, errors: %d, warnings: %d\n",
		countEntities(env), members(env, wire.ErrorsKey), members(env, wire.WarningsKey))
	return err
}

// countEntities sums the bucket lengths of a pack.
func countEntities(n wire.Node) int {
	env, ok := n.(*wire.Object)
	if !ok {
		return 0
	}
	data, _ := env.Get(wire.DataKey)
	buckets, ok := data.(*wire.Object)
	if !ok {
		return 0
	}
	total := 0
	buckets.Range(func(_ string, b wire.Node) bool {
		seq, _ := b.(wire.Sequence)
		total += len(seq)
		return true
	})
	return total
}

func members(env *wire.Object, key string) int {
	n, _ := env.Get(key)
	if obj, ok := n.(*wire.Object); ok {
		return obj.Len()
	}
	return 0
}
