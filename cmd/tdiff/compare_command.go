package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/tdiff/internal/engine"
	"github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/internal/render"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var save bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <file>...",
		Short: "Line up the files of several torrents and flag differences",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			repo, err := ctx.catalog(save)
			if err != nil {
				return err
			}
			defer ctx.close()

			var catalog engine.Catalog
			if repo != nil {
				catalog = repo
			}

			eng, err := ctx.engine(catalog)
			if err != nil {
				return err
			}

			report, err := eng.Compare(cmd.Context(), ctx.readSources(args))
			if err != nil {
				return err
			}

			if save {
				if err := repo.SaveReport(report); err != nil {
					return fmt.Errorf("save report: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				report.PrepareForSerialization()
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				opts := ctx.renderOptions()
				if table := render.Table(report, opts); table != "" {
					fmt.Fprintln(out, table)
				}
				fmt.Fprint(out, render.Summary(report, opts))
				if save {
					fmt.Fprintf(out, "Saved report %s\n", report.ID)
				}
			}

			if len(report.Manifests) == 0 {
				return errors.ErrAllFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Store the report in the catalog")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}
