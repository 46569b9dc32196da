package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gigbook",
		Short:        "Inbound booking pipeline for gigbook",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newIngestCmd())
	return root
}
