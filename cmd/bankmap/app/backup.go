package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBackupCommand creates the backup command.
func (a *App) NewBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write an immutable snapshot of the canonical dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bm, err := a.Bankmap()
			if err != nil {
				return err
			}
			b, err := bm.Build(cmd.Context())
			if err != nil {
				return err
			}
			url, err := bm.Backup(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Local snapshot: %s (%d banks)\n", url, len(b.Rows))
			return nil
		},
	}
}
