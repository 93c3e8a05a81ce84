package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bassista/go_discover/internal/config"
	"github.com/bassista/go_discover/internal/logger"
)

// cli carries what every subcommand needs once the root has loaded configuration.
type cli struct {
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "discover",
		Short:        "Surface Codemao community works that match your interests",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logCloser != nil {
				_ = c.logCloser.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "directory holding config.yaml (default ./config)")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newWeightsCmd(c),
		newOpenCmd(c),
	)
	return root
}

func (c *cli) load() error {
	if c.configPath != "" {
		if err := os.Setenv("GO_DISCOVER_CONFIG_PATH", c.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Errorf("configuration error: %v", err)
		return err
	}

	closer, err := logger.Configure(cfg.Misc.LogLevel, cfg.Misc.LogFile)
	if err != nil {
		logger.WithComponent("main").Warnf("cannot configure logging: %v", err)
	}
	c.cfg = cfg
	c.logCloser = closer
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel().String())
	return nil
}
