package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/johnwards/treeseed/internal/api"
	"github.com/johnwards/treeseed/internal/api/admin"
	"github.com/johnwards/treeseed/internal/app"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin HTTP API",
		Long: `Serve seed, reset, classes and tree over HTTP under /_treeseed/.
Requests need "Authorization: Bearer <token>" when TREESEED_AUTH_TOKEN is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = rootOpts.Config.Addr
			}
			ctx := cmd.Context()
			return withApp(ctx, rootOpts, func(a *app.App) error {
				srv := &http.Server{
					Addr:              addr,
					Handler:           newHandler(a, rootOpts.Config.AuthToken, rootOpts.Logger),
					ReadHeaderTimeout: 10 * time.Second,
				}
				return serve(ctx, srv, rootOpts.Logger)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TREESEED_ADDR)")
	return cmd
}

// newHandler builds the admin mux behind the middleware chain.
func newHandler(svc admin.Service, authToken string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	admin.RegisterRoutes(mux, svc)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r, http.StatusNotFound, api.NewNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			api.CorrelationID(r.Context()),
		))
	})

	return api.Chain(mux,
		api.WithLogger(log),
		api.Recovery(log),
		api.RequestID(),
		api.Auth(authToken),
		api.JSONContentType(),
		api.Logging(log),
	)
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting treeseed server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
