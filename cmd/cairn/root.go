package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cairn-launcher/cairn/internal/artifact"
	"github.com/cairn-launcher/cairn/internal/config"
	"github.com/cairn-launcher/cairn/internal/download"
	"github.com/cairn-launcher/cairn/internal/logging"
	"github.com/cairn-launcher/cairn/internal/platform"
	"github.com/cairn-launcher/cairn/internal/service"
)

// app carries what the root command resolves for its subcommands.
type app struct {
	configPath string
	logLevel   string
	verbose    bool

	out    io.Writer
	errOut io.Writer

	cfg *config.Config
	log logging.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "cairn",
		Short: "cairn - verified game content",
		Long: `cairn keeps a game's content directory complete and trustworthy.

Every artifact is verified either by the hash its manifest declares or by
a detached signature from the distribution's trusted keys.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.cairn/"+config.DefaultFileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show full config errors")

	root.AddCommand(
		newEnsureCmd(a),
		newVerifyCmd(a),
		newOptionalCmd(a),
		newManifestCmd(a),
		newTrustCmd(a),
		newArgsCmd(a),
		newConfigCmd(a),
	)
	return root
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".cairn", config.DefaultFileName), nil
}

// load reads the config file, falling back to defaults when the default
// file does not exist, and builds the logger.
func (a *app) load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	path := a.configPath
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.NewParser(platform.NewDetector()).ParseFile(ctx, path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	default:
		return errors.New(config.FormatError(err, a.verbose))
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// open starts a session whose status lines are printed to out.
func (a *app) open(ctx context.Context) (*service.Session, error) {
	dl := download.New(download.Options{
		Timeout:           a.cfg.Download.Timeout,
		UserAgent:         a.cfg.Download.UserAgent,
		MaxBytesPerSecond: int(a.cfg.Download.MaxRate),
	})
	return service.Open(ctx, a.cfg, service.Deps{
		Downloader: dl,
		Reporter:   artifact.NewLineReporter(a.out),
		Logger:     a.log,
	})
}
