package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/tdiff/internal/errors"
	"github.com/NamanBalaji/tdiff/internal/render"
	"github.com/NamanBalaji/tdiff/internal/repository"
	"github.com/NamanBalaji/tdiff/pkg/torrent/metainfo"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local manifest catalog",
	}

	catalogCmd.AddCommand(newCatalogAddCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))

	return catalogCmd
}

func newCatalogAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Store torrents in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.catalog(true)
			if err != nil {
				return err
			}
			defer ctx.close()

			eng, err := ctx.engine(repo)
			if err != nil {
				return err
			}

			var failed []error
			for _, src := range ctx.readSources(args) {
				if src.Err != nil {
					failed = append(failed, errors.Classify(src.Err, src.Name, -1))
					continue
				}

				insp, err := eng.Inspect(src.Name, src.Data)
				if err != nil {
					failed = append(failed, err)
					continue
				}

				if err := repo.SaveManifest(repository.NewManifestRecord(insp), src.Data); err != nil {
					failed = append(failed, fmt.Errorf("%s: %w", src.Name, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", insp.Hash, insp.Manifest.Name)
			}

			return errors.Join(failed...)
		},
	}
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored torrents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.catalog(false)
			if err != nil {
				return err
			}
			if repo == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog is empty")
				return nil
			}
			defer ctx.close()

			records, err := repo.FindAllManifests()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog is empty")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.Catalog(records, ctx.renderOptions()))
			return nil
		},
	}
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <hash>...",
		Short: "Remove torrents from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.catalog(false)
			if err != nil {
				return err
			}
			if repo == nil {
				return repository.ErrManifestNotFound
			}
			defer ctx.close()

			for _, arg := range args {
				hash, err := normalizeHash(arg)
				if err != nil {
					return err
				}
				if err := repo.DeleteManifest(hash); err != nil {
					return fmt.Errorf("%s: %w", hash, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", hash)
			}
			return nil
		},
	}
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "show <hash>",
		Short: "Show a stored torrent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.catalog(false)
			if err != nil {
				return err
			}
			if repo == nil {
				return repository.ErrManifestNotFound
			}
			defer ctx.close()

			hash, err := normalizeHash(args[0])
			if err != nil {
				return err
			}

			rec, err := repo.FindManifest(hash)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.ManifestRecord(rec, ctx.renderOptions()))

			if exportPath == "" {
				return nil
			}

			raw, err := repo.RawManifest(hash)
			if err != nil {
				return err
			}
			f, err := ctx.fs.CreateFile(exportPath)
			if err != nil {
				return err
			}
			if _, err := f.Write(raw); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exportPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "Write the stored torrent to this path")

	return cmd
}

// normalizeHash accepts hex, base32 or a magnet link and returns
// lowercase hex.
func normalizeHash(s string) (string, error) {
	raw, err := metainfo.ParseHash(s)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
