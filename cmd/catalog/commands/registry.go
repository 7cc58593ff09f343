package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) registryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the content hash registry",
	}
	cmd.AddCommand(a.registryRebuildCommand(), a.registryVerifyCommand())
	return cmd
}

func (a *app) registryRebuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Re-hash every stored image and replace the registry contents",
		Long: `Recovers the registry from the store. When two stored assets share a
hash, the first in category and sequence order keeps it and the other is
reported so it can be removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.registry.Rebuild(cmd.Context(), e.store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range report.Conflicts {
				fmt.Fprintf(out, "duplicate %s: same content as %s\n", c.DroppedID, c.KeptID)
			}
			fmt.Fprintf(out, "registered %d hash(es), %d duplicate(s)\n", report.Registered, len(report.Conflicts))
			return nil
		},
	}
}

func (a *app) registryVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare the registry with the store without changing either",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.registry.Verify(cmd.Context(), e.store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range report.Orphans {
				fmt.Fprintf(out, "orphan       %s (%s)\n", o.AssetID, o.Hash)
			}
			for _, id := range report.Unregistered {
				fmt.Fprintf(out, "unregistered %s\n", id)
			}
			for _, id := range report.Mismatched {
				fmt.Fprintf(out, "mismatched   %s\n", id)
			}
			if !report.OK() {
				return fmt.Errorf("registry out of sync: run 'catalog registry rebuild'")
			}
			fmt.Fprintln(out, "registry in sync")
			return nil
		},
	}
}
