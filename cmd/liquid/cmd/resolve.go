package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newResolveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <uid>...",
		Short: "Show the effective position of single voters and where it comes from",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := e.engine(false)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, uid := range args {
				res, err := engine.Resolve(uid)
				if err != nil {
					return err
				}
				var detail string
				switch v, _ := engine.Registry().Voter(uid); {
				case res.Direct(uid):
					detail = "direct"
				case res.Source != "":
					detail = fmt.Sprintf("from %s after %d steps", res.Source, res.Steps)
				case v.DelegatesToSelf():
					detail = "delegates to self"
				case v.HasDelegate():
					detail = "no voter reached"
				default:
					detail = "no delegate"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", uid, res.Position, detail)
			}
			return tw.Flush()
		},
	}
}
