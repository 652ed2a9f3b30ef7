package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warbler/internal/config"
	"warbler/internal/logging"
	"warbler/internal/store"
)

// cli carries what PersistentPreRunE loads for every subcommand.
type cli struct {
	envFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "warbler",
		Short: "Warbler, a small social network for short messages",
		Long: `Warbler serves the web application and ships the maintenance tools
that work on its database.

Configuration comes from the environment, optionally preloaded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel, cfg.Debug)
			if err != nil {
				return err
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env", ".env", "path to an optional .env file")

	root.AddCommand(c.serveCmd(), c.seedCmd(), c.flagCmd())
	return root
}

// openStore opens the configured database and makes sure the schema exists.
func (c *cli) openStore(cmd *cobra.Command) (*store.Store, error) {
	st, err := store.Open(c.cfg.DatabaseDriver, c.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
