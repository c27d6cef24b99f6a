package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/tdiff/internal/render"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show a torrent's identity and file fingerprints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			eng, err := ctx.engine(nil)
			if err != nil {
				return err
			}

			data, err := ctx.fs.ReadManifest(args[0])
			if err != nil {
				return err
			}

			insp, err := eng.Inspect(args[0], data)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), render.Inspection(insp, ctx.renderOptions()))
			return nil
		},
	}
}
