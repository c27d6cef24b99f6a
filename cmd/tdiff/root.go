package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var debugFlag bool
	var configFlag string

	ctx := newCommandContext(&debugFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "tdiff",
		Short:         "Compare the file lists of torrents describing the same content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write a debug log")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newCompareCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))

	return rootCmd
}
