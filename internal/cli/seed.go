package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnwards/treeseed/internal/app"
)

// DateLayout is the layout of the --date flag.
const DateLayout = "2006-01-02"

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		instances int
		date      string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create sample instances of every registered class",
		Long: `Register the catalog, then create N instances of every available class
inside a SampleData_<Class> folder and wire the relations between them.

Reruns reuse existing instances by key. Per-instance failures are listed in
the report and do not change the exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			epoch, err := parseDate(date)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				report, err := a.Seed(ctx, app.SeedRequest{Instances: instances, Epoch: epoch})
				if err != nil {
					return WrapExitError(ExitFailure, "seed", err)
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, report)
			})
		},
	}

	cmd.Flags().IntVarP(&instances, "instances", "n", 0, "instances per class (default from TREESEED_INSTANCES)")
	cmd.Flags().StringVar(&date, "date", "", "base date for date fields, YYYY-MM-DD (default today)")
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid date %q: want %s", s, DateLayout))
	}
	return t, nil
}
