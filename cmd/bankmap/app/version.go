package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "bankmap %s\n", a.version)
			fmt.Fprintf(a.out, "  commit:   %s\n", a.commit)
			fmt.Fprintf(a.out, "  built:    %s\n", a.date)
			fmt.Fprintf(a.out, "  built by: %s\n", a.builtBy)
			fmt.Fprintf(a.out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
