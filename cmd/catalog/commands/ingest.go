package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wallpaper-catalog/internal/catalog"
	"wallpaper-catalog/internal/ingest"
)

type ingestFlags struct {
	hintsFile    string
	title        string
	tags         string
	photographer string
	source       string
	update       bool
	build        bool
}

func (a *app) ingestCommand() *cobra.Command {
	var f ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest <category> <file>...",
		Short: "Validate, deduplicate and store candidate images",
		Long: `Each file is validated, normalized to JPEG, checked against the hash
registry and, if new, stored under the next sequence number of the category.
A re-compressed copy of a stored image is a duplicate even though its bytes
differ. Rejections are reported per file and do not fail the command; write
failures do.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hints, err := f.hints()
			if err != nil {
				return err
			}

			e, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			pipeline := ingest.New(e.store, e.registry, e.cfg.IngestOptions())
			summary := pipeline.IngestBatch(cmd.Context(), ingest.Request{
				Category: args[0],
				Hints:    hints,
				Update:   f.update,
			}, args[1:])

			printBatch(cmd.OutOrStdout(), summary)
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", summary.Failed, len(args)-1)
			}

			if f.build && (summary.Accepted > 0 || summary.Updated > 0) {
				report, err := catalog.New(e.store, e.cfg.CatalogOptions()).Build(cmd.Context(), e.cfg.OutputDir)
				if err != nil {
					return err
				}
				printBuild(cmd.OutOrStdout(), report, e.cfg.OutputDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.hintsFile, "hints", "", "JSON file with title, tags, photographer and source")
	cmd.Flags().StringVar(&f.title, "title", "", "title (overrides --hints)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags (overrides --hints)")
	cmd.Flags().StringVar(&f.photographer, "photographer", "", "photographer credit (overrides --hints)")
	cmd.Flags().StringVar(&f.source, "source", "", "source URL (overrides --hints)")
	cmd.Flags().BoolVar(&f.update, "update", false, "rewrite the metadata of an existing asset with the same content")
	cmd.Flags().BoolVar(&f.build, "build", false, "rebuild the catalog after a successful ingest")
	cmd.Flags().Int("perceptual-distance", 0, "max perceptual hash distance for near-duplicates (negative disables)")
	a.bind(cmd.Flags(), "perceptual-distance")
	return cmd
}

// hints merges the hints file with the individual flags; flags win.
func (f *ingestFlags) hints() (ingest.Hints, error) {
	var h ingest.Hints
	if f.hintsFile != "" {
		var err error
		if h, err = ingest.LoadHints(f.hintsFile); err != nil {
			return h, err
		}
	}
	if f.title != "" {
		h.Title = f.title
	}
	if tags := ingest.ParseTags(f.tags); tags != nil {
		h.Tags = tags
	}
	if f.photographer != "" {
		h.Photographer = f.photographer
	}
	if f.source != "" {
		h.Source = f.source
	}
	return h, nil
}

func printBatch(w io.Writer, summary *ingest.BatchSummary) {
	for _, o := range summary.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(w, "failed    %s: %v\n", o.Source, o.Err)
		case o.Result.Rejection != nil:
			fmt.Fprintf(w, "rejected  %s: %s\n", o.Source, o.Result.Rejection)
		case o.Result.Updated:
			fmt.Fprintf(w, "updated   %s -> %s\n", o.Source, o.Result.Record.ID)
		default:
			fmt.Fprintf(w, "accepted  %s -> %s %s\n", o.Source, o.Result.Record.ID, o.Result.Record.ImageURL)
		}
	}

	rejected := 0
	for _, n := range summary.Rejected {
		rejected += n
	}
	fmt.Fprintf(w, "run %s: %d accepted, %d updated, %d rejected, %d failed\n",
		summary.RunID, summary.Accepted, summary.Updated, rejected, summary.Failed)
}
