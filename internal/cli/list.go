package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/treeorder/internal/node"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Parent string
}

// GroupListing is the JSON payload of list.
type GroupListing struct {
	Parent string      `json:"parent"`
	Nodes  []node.Node `json:"nodes"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a sibling group in position order",
		Long: `List the children of --parent (the root group by default) in position
order. Nodes without a position are listed last with "-".

Examples:
  treeorder list
  treeorder list --parent chapter-1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent node id (empty for the root group)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := formatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	parent := node.NormalizeID(opts.Parent)

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	children, err := s.store.Children(ctx, parent)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list group", err)
	}

	if opts.Format == "json" {
		return out.Success(GroupListing{Parent: parent, Nodes: children})
	}

	w := cmd.OutOrStdout()
	if len(children) == 0 {
		fmt.Fprintf(w, "No nodes under %s.\n", parentLabel(parent))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range children {
		pos := "-"
		if n.Placed {
			pos = fmt.Sprint(n.Position)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pos, n.ID, n.Label)
	}
	return tw.Flush()
}
