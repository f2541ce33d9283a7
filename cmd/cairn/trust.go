package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTrustCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Inspect the trusted signing keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the keys signatures are accepted from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tALGORITHM\tFINGERPRINT")
			for _, k := range s.Trust().Keys() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", k.Name, k.Algorithm, k.Fingerprint())
			}
			return w.Flush()
		},
	})
	return cmd
}
