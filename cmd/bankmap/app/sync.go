package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bankgreen/bankmap/pkg/differ"
	"github.com/bankgreen/bankmap/pkg/reconciler"
)

// NewSyncCommand creates the sync command.
func (a *App) NewSyncCommand() *cobra.Command {
	var (
		dryRun   bool
		strategy string
		details  bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the remote store against the canonical dataset",
		Long: `Sync builds the canonical dataset, backs up the remote table when a
backup URL is configured and then deletes, updates and inserts rows until
the remote table matches. Rows flagged preserve are never touched.`,
		Example: `  bankmap sync --dry-run
  bankmap sync --strategy additive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strategy == "" {
				strategy = a.config.Strategy
			}
			st, err := differ.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			bm, err := a.Bankmap()
			if err != nil {
				return err
			}
			remote, closeStore, err := a.Store(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := bm.Sync(cmd.Context(), remote,
				reconciler.WithDryRun(dryRun),
				reconciler.WithStrategy(st),
			)
			if err != nil {
				if result != nil && result.Applied.Total() > 0 {
					fmt.Fprintf(a.out, "Applied before failure: %d deleted, %d updated, %d inserted\n",
						result.Applied.Deleted, result.Applied.Updated, result.Applied.Inserted)
					if result.BackupURL != "" {
						fmt.Fprintf(a.out, "Remote snapshot: %s\n", result.BackupURL)
					}
				}
				return err
			}

			if (dryRun || details) && result.Planned != nil {
				result.Planned.Print(a.out)
				fmt.Fprintln(a.out)
			}
			fmt.Fprintln(a.out, result.Summary())
			if result.BackupURL != "" {
				fmt.Fprintf(a.out, "Remote snapshot: %s\n", result.BackupURL)
			}
			return a.writeMetrics()
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the changeset without writing")
	cmd.Flags().StringVar(&strategy, "strategy", "", "apply strategy: all, additive, updates-only, additions-only")
	cmd.Flags().BoolVar(&details, "details", false, "print every planned change")
	return cmd
}
