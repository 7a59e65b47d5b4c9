// Command ccdemo drives the concurrency-control core end to end: it
// wires a chosen strategy (SS2PL or SGT) over an in-memory column store
// and either replays the fixed scenarios spec.md §8 names or runs a
// concurrent benchmark mix. Grounded on
// darleet-GraphDB/src/cli/root.go + cmd/server/app (cobra root command,
// one subcommand per cobra.Command) and src/app/entrypoint.go's
// signal-aware run loop, adapted from an HTTP server entrypoint to a
// one-shot CLI since this module has no listening surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ccdemo: %v\n", err)
		os.Exit(1)
	}
}
