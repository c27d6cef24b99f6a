package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NamanBalaji/tdiff/internal/render"
	"github.com/NamanBalaji/tdiff/internal/repository"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Browse saved comparison reports",
	}

	reportCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.catalog(false)
			if err != nil {
				return err
			}
			if repo == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved reports")
				return nil
			}
			defer ctx.close()

			reports, err := repo.FindAllReports()
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved reports")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.Reports(reports, ctx.renderOptions()))
			return nil
		},
	})

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid report ID %q: %w", args[0], err)
			}

			repo, err := ctx.catalog(false)
			if err != nil {
				return err
			}
			if repo == nil {
				return repository.ErrReportNotFound
			}
			defer ctx.close()

			report, err := repo.FindReport(id)
			if err != nil {
				return err
			}

			if asJSON {
				report.PrepareForSerialization()
				return writeJSON(cmd, report)
			}

			opts := ctx.renderOptions()
			out := cmd.OutOrStdout()
			if table := render.Table(report, opts); table != "" {
				fmt.Fprintln(out, table)
			}
			fmt.Fprint(out, render.Summary(report, opts))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	reportCmd.AddCommand(showCmd)

	return reportCmd
}
