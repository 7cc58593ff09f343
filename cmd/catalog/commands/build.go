package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wallpaper-catalog/internal/catalog"
)

// ErrIntegrity is returned by check when the store has integrity issues.
var ErrIntegrity = errors.New("integrity issues found")

func (a *app) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Regenerate every catalog document from the store",
		Long: `Scans the store and rewrites the whole derived tree (all.json,
categories, pages, featured, stats). The new tree replaces the previous one
only once it is complete. Assets with integrity issues are skipped and
reported, not fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := catalog.New(e.store, e.cfg.CatalogOptions()).Build(cmd.Context(), e.cfg.OutputDir)
			if err != nil {
				return err
			}
			printBuild(cmd.OutOrStdout(), report, e.cfg.OutputDir)
			return nil
		},
	}

	cmd.Flags().Int("page-size", 0, "entries per page (default 15)")
	cmd.Flags().Int("featured-count", 0, "entries in featured.json (default 20)")
	a.bind(cmd.Flags(), "page-size", "featured-count")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Audit the store without writing any document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := catalog.New(e.store, e.cfg.CatalogOptions()).Check(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printIssues(out, report.Issues)
			fmt.Fprintf(out, "%d asset(s) complete, %d skipped, %d issue(s)\n", report.Included, report.Skipped, len(report.Issues))
			if len(report.Issues) > 0 {
				return ErrIntegrity
			}
			return nil
		},
	}
}

func printBuild(w io.Writer, report *catalog.BuildReport, outDir string) {
	printIssues(w, report.Issues)
	fmt.Fprintf(w, "built %d document(s) for %d asset(s) into %s (%d skipped)\n",
		report.Documents, report.Included, outDir, report.Skipped)
}

func printIssues(w io.Writer, issues []catalog.IntegrityIssue) {
	for _, issue := range issues {
		subject := issue.AssetID
		if subject == "" {
			subject = issue.Path
		}
		fmt.Fprintf(w, "issue     %s: %s\n", subject, issue.Problem)
	}
}
