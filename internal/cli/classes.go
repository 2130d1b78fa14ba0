package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnwards/treeseed/internal/app"
	"github.com/johnwards/treeseed/internal/catalog"
)

// NewClassesCommand creates the classes command group.
func NewClassesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Inspect and register classes",
	}
	cmd.AddCommand(newClassesListCommand(rootOpts))
	cmd.AddCommand(newClassesImportCommand(rootOpts))
	return cmd
}

func newClassesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered classes and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				classes, err := a.Classes(ctx)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, classes)
			})
		},
	}
}

// importResult is the output of classes import.
type importResult struct {
	File    string   `json:"file"`
	Classes []string `json:"classes"`
}

func (r importResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "registered %d class(es) from %s: %s\n", len(r.Classes), r.File, strings.Join(r.Classes, ", "))
	return err
}

func newClassesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Register classes from a YAML or TOML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load catalog", err)
			}
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				if err := a.ImportCatalog(ctx, cat); err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, importResult{File: args[0], Classes: cat.Names()})
			})
		},
	}
}
