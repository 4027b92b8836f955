package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/treeorder/internal/node"
	"github.com/roach88/treeorder/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Parent string
	Label  string

	// IDs generates the node ID when "-" is given (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs node.IDGenerator
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a node at the end of its sibling group",
		Long: `Add a node under --parent (or as a root) and give it the next free
position in that group.

Pass "-" as the id to generate a UUIDv7.

Examples:
  treeorder add chapter-1
  treeorder add section-1 --parent chapter-1 --label "Intro"
  treeorder add - --parent chapter-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent node id (empty for a root)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "free-form label")

	return cmd
}

func runAdd(opts *AddOptions, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if id == "-" {
		gen := opts.IDs
		if gen == nil {
			gen = node.UUIDv7Generator{}
		}
		id = gen.Generate()
	}
	id = node.NormalizeID(id)
	parent := node.NormalizeID(opts.Parent)
	if id == "" {
		return NewExitError(ExitCommandError, "node id must not be empty")
	}

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	if parent != "" {
		if _, err := s.get(ctx, parent); err != nil {
			return err
		}
	}

	n := node.Node{ID: id, ParentID: parent, Label: opts.Label}
	if err := s.store.Insert(ctx, n); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fail(out, CodeConflict, ExitCommandError, fmt.Sprintf("node already exists: %s", id), nil)
		}
		return WrapExitError(ExitCommandError, "failed to insert node", err)
	}

	placed, err := s.engine.AssignDefaultPosition(ctx, n, false)
	if err != nil {
		return engineFailure(out, "add", err)
	}

	if opts.Format == "json" {
		return out.Success(placed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s at position %d under %s\n", placed.ID, placed.Position, parentLabel(placed.ParentID))
	return nil
}

func parentLabel(parent string) string {
	if parent == "" {
		return "<root>"
	}
	return parent
}
