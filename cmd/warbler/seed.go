package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warbler/internal/store"
)

func (c *cli) seedCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Wipe the database and load users, messages and follows from CSV files",
		Long: `Reads users.csv, messages.csv and follows.csv from --dir and replaces
everything in the database with their rows. Existing data is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := store.LoadSeedDir(dir)
			if err != nil {
				return err
			}

			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Seed(cmd.Context(), data); err != nil {
				return err
			}
			c.logger.Info("database seeded",
				zap.String("dir", dir),
				zap.Int("users", len(data.Users)),
				zap.Int("messages", len(data.Messages)),
				zap.Int("follows", len(data.Follows)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d messages, %d follows\n",
				len(data.Users), len(data.Messages), len(data.Follows))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "seed", "directory holding the seed CSV files")
	return cmd
}
