package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/johnwards/treeseed/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand()
	root.SilenceErrors = true
	if err := root.ExecuteContext(ctx); err != nil {
		format, _ := root.PersistentFlags().GetString("format")
		cli.WriteError(root.ErrOrStderr(), format, err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
