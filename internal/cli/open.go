package cli

import (
	"context"

	"github.com/johnwards/treeseed/internal/app"
)

// withApp opens the app, runs fn and closes the app again.
func withApp(ctx context.Context, opts *RootOptions, fn func(*app.App) error) error {
	a, err := app.Open(ctx, opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}
