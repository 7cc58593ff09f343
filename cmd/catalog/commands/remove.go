package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wallpaper-catalog/internal/ingest"
)

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <asset-id>...",
		Short: "Remove stored assets and free their content hashes",
		Long: `Deletes the image, thumbnail and metadata of each asset and removes its
hash from the registry. The sequence number is retired, not reused.
Run build afterwards to drop the asset from the catalog.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			pipeline := ingest.New(e.store, e.registry, e.cfg.IngestOptions())
			var errs []error
			for _, id := range args {
				if err := pipeline.Remove(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
			}
			return errors.Join(errs...)
		},
	}
}
