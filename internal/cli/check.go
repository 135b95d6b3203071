package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zrkn/eventd/internal/decl"
)

func newCheckCmd(g *globals) *cobra.Command {
	var file, printFormat string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a declaration file and list its events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := decl.Load(file)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if printFormat != "" {
				data, err := f.Encode(decl.Format(printFormat))
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}

			for _, d := range f.Events {
				fmt.Fprintln(w, describe(d))
			}
			g.logger().Debug("declarations valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "declaration file (.toml, .yaml)")
	cmd.Flags().StringVar(&printFormat, "print", "", "print the normalized file as toml or yaml")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// describe renders one line per declaration, e.g.
// "KeyPressed(code uint8) read_only single_threaded owned".
func describe(d decl.Declaration) string {
	opts := d.Options()
	ownership := decl.OwnershipOwned
	if d.Shared() {
		ownership = decl.OwnershipShared
	}

	parts := []string{
		d.Name + "(" + d.Signature() + ")",
		opts.Mutability.String(),
		opts.Concurrency.String(),
		ownership,
	}
	if d.Fallible {
		parts = append(parts, "fallible")
	}
	return strings.Join(parts, " ")
}
