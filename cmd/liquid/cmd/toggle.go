package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmwaters/liquid/pkg/dataset"
)

func newToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <uid>...",
		Short: "Cycle direct votes through yay, nay, blank and no vote, saving the vote file",
		Long: `Cycle the direct vote of each voter through yay, nay, blank and no vote, in
the order given. The vote file named by --votes is rewritten, and created when
missing. The tally after the change is printed last.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.v.GetString(keyVotes)
			if path == "" {
				return errors.New("toggle needs a vote file: set --votes or LIQUID_VOTES")
			}
			engine, err := e.engine(true)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, uid := range args {
				p, err := engine.ToggleVote(uid)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", uid, p)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			votes, _ := engine.VoteSet().Snapshot()
			if err := dataset.SaveVotes(path, votes); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), engine.Tally(cmd.Context()))
			return err
		},
	}
}
