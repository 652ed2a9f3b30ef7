package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) flagCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "flag <message_id>...",
		Short: "Hide messages from timelines, or dump all messages with -i",
		Long: `Moderation tool.

  warbler flag <message_id>...   flag the given messages
  warbler flag -i                dump all messages as id,user_id,text,flagged`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dump && len(args) == 0 {
				return cmd.Help()
			}

			st, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			if dump {
				msgs, err := st.AllMessages(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range msgs {
					flagged := 0
					if m.Flagged {
						flagged = 1
					}
					fmt.Fprintf(out, "%d,%d,%s,%d\n", m.ID, m.UserID, m.Text, flagged)
				}
				return nil
			}

			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					fmt.Fprintf(errOut, "Invalid message ID: %s\n", arg)
					continue
				}
				n, err := st.FlagMessages(cmd.Context(), id)
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintf(errOut, "No message with ID: %d\n", id)
					continue
				}
				fmt.Fprintf(out, "Flagged entry: %d\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dump, "dump", "i", false, "dump all messages and authors to stdout")
	return cmd
}
