package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cairn-launcher/cairn/internal/service"
)

func newOptionalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optional",
		Short: "List and toggle optional artifacts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List optional artifacts and their state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runOptionalList(cmd)
			},
		},
		newOptionalSetCmd(a, true),
		newOptionalSetCmd(a, false),
	)
	return cmd
}

func newOptionalSetCmd(a *app, enable bool) *cobra.Command {
	use, short := "disable <name|path>", "Disable an optional artifact, keeping its file"
	if enable {
		use, short = "enable <name|path>", "Enable an optional artifact, downloading it if needed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			info, err := service.NewOptionalService(s).Set(ctx, service.SetRequest{Key: args[0], Enabled: enable})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s\n", displayName(*info), info.Status)
			return nil
		},
	}
}

func (a *app) runOptionalList(cmd *cobra.Command) error {
	ctx := cmd.Context()
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	list, err := service.NewOptionalService(s).List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No optional artifacts.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tNAME\tPATH\tDESCRIPTION")
	for _, o := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Status, displayName(o), o.Path, o.Description)
	}
	return w.Flush()
}

func displayName(o service.OptionalInfo) string {
	if o.Name != "" {
		return o.Name
	}
	return o.Path
}
