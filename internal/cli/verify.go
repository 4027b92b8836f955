package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/treeorder/internal/ordering"
)

// GroupCheck is the verification result of one sibling group.
type GroupCheck struct {
	Parent string `json:"parent"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Groups []GroupCheck `json:"groups"`
	Broken int          `json:"broken"`
	Total  int          `json:"total"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every sibling group is contiguous",
		Long: `Check every sibling group in the database for positions 0..n-1.

Exit codes:
  0 - All groups contiguous
  1 - One or more groups have gaps, duplicates or unplaced nodes
  2 - Command error (database not found, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	parents, err := s.store.Parents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list groups", err)
	}

	result := VerifyResult{Groups: make([]GroupCheck, 0, len(parents)), Total: len(parents)}
	for _, p := range parents {
		check := GroupCheck{Parent: p, OK: true}
		if err := s.engine.VerifyGroup(ctx, p); err != nil {
			if !ordering.IsInvariantViolation(err) {
				return WrapExitError(ExitCommandError, "failed to verify group", err)
			}
			check.OK = false
			check.Error = err.Error()
			result.Broken++
		}
		result.Groups = append(result.Groups, check)
	}

	if opts.Format == "json" {
		if result.Broken == 0 {
			return out.Success(result)
		}
		if err := out.Error(CodeInvariant, fmt.Sprintf("%d group(s) not contiguous", result.Broken), result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d group(s) not contiguous", result.Broken))
	}

	w := cmd.OutOrStdout()
	for _, g := range result.Groups {
		if g.OK {
			out.VerboseLog("✓ %s", parentLabel(g.Parent))
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  %s\n", parentLabel(g.Parent), g.Error)
	}
	if result.Broken > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d group(s) not contiguous", result.Broken))
	}
	fmt.Fprintf(w, "✓ %d group(s) contiguous\n", result.Total)
	return nil
}
