package cli

import (
	"github.com/spf13/cobra"

	"github.com/johnwards/treeseed/internal/app"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the folder and object tree under the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				node, err := a.Tree(ctx, depth)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, node)
			})
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "levels below the root to print")
	return cmd
}
