package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kpictl",
		Short: "Operate the store audit KPI pipeline",
		Long: `kpictl validates and scores KPI definitions from YAML fixtures and drives the
running pipeline: re-enqueue a company's surveys or recompute a segment aggregate.

Offline commands:  validate, score
Online commands:   reprocess, aggregate (read MONGODB_* and KAFKA_* from config/env)`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newValidateCmd(),
		newScoreCmd(),
		newReprocessCmd(),
		newAggregateCmd(),
	)
	return root
}
