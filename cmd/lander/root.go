package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3-lines-studio/lander/internal/adapters/cli"
	"github.com/3-lines-studio/lander/internal/config"
	"github.com/3-lines-studio/lander/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type app struct {
	cfgFile string
	debug   bool
	noColor bool

	cfg    *config.Config
	logger *zap.Logger
	output *cli.Output
}

func newRootCommand() *cobra.Command {
	a := &app{output: cli.NewOutput()}

	root := &cobra.Command{
		Use:           "lander",
		Short:         "Export landing-page projects as static bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./lander.yaml or ./config/lander.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newExportCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lander version %s\n", version)
		},
	})

	return root
}

func (a *app) init() error {
	if a.noColor {
		a.output.DisableColors()
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		a.output.PrintError("%v", err)
		return err
	}
	if cfg.App.Version == "dev" && version != "dev" {
		cfg.App.Version = version
	}

	level := cfg.Log.Level
	if a.debug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development || a.debug)
	if err != nil {
		a.output.PrintError("%v", err)
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
