package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbcore/ccstore/internal/ccconfig"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ccdemo",
		Short: "Drives the concurrency-control core against a chosen strategy",
	}
	root.AddCommand(newRunCommand(), newBenchCommand())
	return root
}

func loadConfig() (ccconfig.Config, error) {
	return ccconfig.Load()
}

func loggerFor(cfg ccconfig.Config) (*zap.SugaredLogger, error) {
	return ccconfig.NewLogger(cfg.Environment)
}
