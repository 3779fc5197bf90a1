package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/pkg/registry"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type tallyFlags struct {
	clear       bool
	set         []string
	toggle      []string
	output      string
	annotations bool
}

func newTallyCmd(e *env) *cobra.Command {
	var flags tallyFlags
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Resolve every voter and count the outcome",
		Long: `Resolve every voter and count the outcome.

Votes are read from --votes, then --clear, --set and --toggle are applied in
that order. The vote file itself is not modified.`,
		Example: `  liquid tally --voters voters.yaml --votes votes.yaml
  liquid tally --voters voters.yaml --set a=yay --toggle b --annotations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTally(cmd, e, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.clear, "clear", false, "withdraw every vote before applying changes")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "set a direct vote as uid=position, repeatable")
	cmd.Flags().StringArrayVar(&flags.toggle, "toggle", nil, "toggle the direct vote of uid, repeatable")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputText, "output format: text or json")
	cmd.Flags().BoolVar(&flags.annotations, "annotations", false, "list how every voter was counted")
	return cmd
}

func runTally(cmd *cobra.Command, e *env, flags tallyFlags) error {
	if flags.output != outputText && flags.output != outputJSON {
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	engine, err := e.engine(false)
	if err != nil {
		return err
	}

	if flags.clear {
		engine.ClearVotes()
	}
	for _, arg := range flags.set {
		uid, p, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		if err := engine.SetVote(uid, p); err != nil {
			return err
		}
	}
	for _, uid := range flags.toggle {
		if _, err := engine.ToggleVote(uid); err != nil {
			return err
		}
	}

	result := engine.Tally(cmd.Context())
	if !flags.annotations {
		result = result.Counts()
	}

	out := cmd.OutOrStdout()
	if flags.output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeResult(out, engine.Registry(), result)
}

// parseAssignment splits uid=position.
func parseAssignment(arg string) (string, delegation.Position, error) {
	uid, pos, ok := strings.Cut(arg, "=")
	if !ok || uid == "" {
		return "", delegation.NoVote, fmt.Errorf("expected uid=position, got %q", arg)
	}
	p, err := delegation.ParsePosition(pos)
	if err != nil {
		return "", delegation.NoVote, err
	}
	return uid, p, nil
}

func writeResult(w io.Writer, reg *registry.Registry, r delegation.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "yay\t%d\t(%d delegated)\n", r.YayTotal, r.YayDelegated)
	fmt.Fprintf(tw, "nay\t%d\t(%d delegated)\n", r.NayTotal, r.NayDelegated)
	fmt.Fprintf(tw, "blank\t%d\t(%d delegated)\n", r.BlankTotal, r.BlankDelegated)
	fmt.Fprintf(tw, "no vote\t%d\t\n", r.NoVote)
	fmt.Fprintf(tw, "quorum\t%d/%d\t\n", r.Quorum, r.Voters)

	if len(r.Annotations) > 0 {
		fmt.Fprintln(tw)
		for _, a := range r.Annotations {
			v, _ := reg.Voter(a.UID)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.UID, v.FullName, a.Position, origin(a))
		}
	}
	return tw.Flush()
}

func origin(a delegation.Annotation) string {
	switch {
	case a.Position == delegation.NoVote:
		return ""
	case a.Delegated:
		return "via " + a.Source
	default:
		return "direct"
	}
}
