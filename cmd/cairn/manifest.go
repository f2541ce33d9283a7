package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cairn-launcher/cairn/internal/service"
)

func newManifestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Curate the content manifest",
	}

	var dryRun bool
	update := &cobra.Command{
		Use:   "update",
		Short: "Append files not yet listed in the manifest",
		Long: `Scan the content root and append every file no manifest entry accounts
for. Existing entries are never changed or removed. File names containing
spaces or apostrophes are normalized on disk first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			res, err := service.NewCurateService(s).Update(ctx, service.CurateRequest{DryRun: dryRun})
			if err != nil {
				return err
			}

			for from, to := range res.Renamed {
				fmt.Fprintf(a.out, "renamed    %s -> %s\n", from, to)
			}
			for _, p := range res.Skipped {
				fmt.Fprintf(a.out, "skipped    %s\n", p)
			}
			for _, p := range res.Added {
				fmt.Fprintf(a.out, "added      %s\n", p)
			}
			switch {
			case dryRun:
				fmt.Fprintf(a.out, "%d new artifacts (dry run, nothing written)\n", len(res.Added))
			case res.Written:
				fmt.Fprintf(a.out, "%d new artifacts written to %s\n", len(res.Added), s.ManifestPath())
			default:
				fmt.Fprintln(a.out, "manifest is up to date")
			}
			return nil
		},
	}
	update.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing")

	cmd.AddCommand(update)
	return cmd
}
