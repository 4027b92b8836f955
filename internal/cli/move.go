package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/ordering"
)

// Move operations accepted by the move command.
const (
	MoveUp     = "up"
	MoveDown   = "down"
	MoveTop    = "top"
	MoveBottom = "bottom"
	MoveAbove  = "above"
	MoveBelow  = "below"
)

// MoveResult is the JSON payload of move.
type MoveResult struct {
	Op     string      `json:"op"`
	Node   string      `json:"node"`
	Target string      `json:"target,omitempty"`
	Parent string      `json:"parent"`
	Group  []node.Node `json:"group"`
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <op> <id> [target]",
		Short: "Reposition a node within or across sibling groups",
		Long: `Reposition a node and print its group afterwards.

Operations:
  up, down       swap with the neighbouring sibling
  top, bottom    move to the first or last position
  above, below   move next to target, adopting target's parent

Examples:
  treeorder move up section-2
  treeorder move top section-3
  treeorder move above section-3 section-1`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runMove(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := formatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	op := strings.ToLower(args[0])
	id := node.NormalizeID(args[1])
	var target string
	if len(args) == 3 {
		target = node.NormalizeID(args[2])
	}

	needsTarget := op == MoveAbove || op == MoveBelow
	switch {
	case !isMoveOp(op):
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown move operation %q: must be one of up, down, top, bottom, above, below", op))
	case needsTarget && target == "":
		return NewExitError(ExitCommandError, fmt.Sprintf("move %s requires a target node", op))
	case !needsTarget && target != "":
		return NewExitError(ExitCommandError, fmt.Sprintf("move %s does not take a target", op))
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	switch op {
	case MoveUp:
		err = s.engine.MoveUp(ctx, n)
	case MoveDown:
		err = s.engine.MoveDown(ctx, n)
	case MoveTop:
		err = s.engine.MoveToTop(ctx, n)
	case MoveBottom:
		err = s.engine.MoveToBottom(ctx, n)
	case MoveAbove, MoveBelow:
		other, gerr := s.get(ctx, target)
		if gerr != nil {
			return gerr
		}
		if op == MoveAbove {
			err = s.engine.MoveAbove(ctx, n, other)
		} else {
			err = s.engine.MoveBelow(ctx, n, other)
		}
	}
	if err != nil {
		return engineFailure(out, "move "+op, err)
	}

	moved, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	group, err := s.store.Children(ctx, moved.ParentID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list group", err)
	}

	if opts.Format == "json" {
		return out.Success(MoveResult{
			Op:     op,
			Node:   id,
			Target: target,
			Parent: moved.ParentID,
			Group:  group,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Moved %s %s", id, op)
	if target != "" {
		fmt.Fprintf(w, " %s", target)
	}
	fmt.Fprintf(w, "\n%s: %s\n", parentLabel(moved.ParentID), renderGroup(group))
	return nil
}

func isMoveOp(op string) bool {
	switch op {
	case MoveUp, MoveDown, MoveTop, MoveBottom, MoveAbove, MoveBelow:
		return true
	}
	return false
}

// renderGroup formats a group as "A:0 B:1", unplaced nodes as "C:-".
func renderGroup(group []node.Node) string {
	parts := make([]string, len(group))
	for i, n := range group {
		if n.Placed {
			parts[i] = fmt.Sprintf("%s:%d", n.ID, n.Position)
		} else {
			parts[i] = n.ID + ":-"
		}
	}
	return strings.Join(parts, " ")
}

// engineFailure reports an ordering error. Persistence and invariant
// failures exit with ExitFailure, anything else is a command error.
func engineFailure(out *OutputFormatter, what string, err error) error {
	switch {
	case ordering.IsPersistenceError(err):
		return fail(out, CodePersistence, ExitFailure, what+" failed part-way", err)
	case ordering.IsInvariantViolation(err):
		return fail(out, CodeInvariant, ExitFailure, what+" refused: group is not contiguous", err)
	default:
		return fail(out, CodeCommand, ExitCommandError, what+" failed", err)
	}
}

// fail writes the JSON error envelope when requested and returns the
// matching ExitError.
func fail(out *OutputFormatter, code string, exitCode int, message string, err error) error {
	if out.Format == "json" {
		var details any
		if err != nil {
			details = err.Error()
		}
		if encErr := out.Error(code, message, details); encErr != nil {
			return encErr
		}
	}
	if err == nil {
		return NewExitError(exitCode, message)
	}
	return WrapExitError(exitCode, message, err)
}
