package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"daylog/internal/cli"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM; only remote imports
	// block long enough to notice.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "daylog: %v\n", err)
		os.Exit(1)
	}
}
