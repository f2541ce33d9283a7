package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cairn-launcher/cairn/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the launcher configuration",
	}

	var output string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration as a Lua file",
		Long: `Write the effective configuration (defaults plus any loaded file) as a
cairn.lua file that can be edited by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			code, err := config.NewGenerator().Generate(a.cfg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(a.out, "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default ~/.cairn/"+config.DefaultFileName+")")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
