package cli

import (
	"github.com/spf13/cobra"

	"github.com/johnwards/treeseed/internal/app"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		reseed    bool
		instances int
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every object, leaving only the root folder",
		Long: `Truncate the object tree and every per-class data table, then recreate
the root folder. Class definitions are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				res, err := a.Reset(ctx, reseed, app.SeedRequest{Instances: instances})
				if err != nil {
					return WrapExitError(ExitFailure, "reset", err)
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, res)
			})
		},
	}

	cmd.Flags().BoolVar(&reseed, "seed", false, "seed again after the reset")
	cmd.Flags().IntVarP(&instances, "instances", "n", 0, "instances per class when reseeding")
	return cmd
}
