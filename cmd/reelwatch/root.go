package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reelwatch",
		Short:         "Indian film industry social media monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newClassifyCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}
