package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cairn-launcher/cairn/internal/service"
)

func newArgsCmd(a *app) *cobra.Command {
	var (
		ensure bool
		vars   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "args <version.json>",
		Short: "Print the launch command line of a game version",
		Long: `Resolve a version document for this machine and print the main class,
JVM arguments and game arguments, one per line.

Libraries and arguments are filtered by the document's platform rules.
A relative path is resolved against the content root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			res, err := service.NewLaunchService(s).Prepare(ctx, service.LaunchRequest{
				VersionFile: args[0],
				Vars:        vars,
				Ensure:      ensure,
			})
			if err != nil {
				return err
			}

			for _, arg := range res.JVM {
				fmt.Fprintln(a.out, arg)
			}
			fmt.Fprintln(a.out, res.MainClass)
			for _, arg := range res.Game {
				fmt.Fprintln(a.out, arg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ensure, "ensure", false, "download missing libraries first")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "placeholder value, e.g. --var auth_player_name=Alex")
	return cmd
}
