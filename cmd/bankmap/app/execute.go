package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/bankgreen/bankmap/pkg/logging"
)

type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	logLevel   string
}

// Execute runs the bankmap CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:     "bankmap",
		Short:   "Bank entity resolution and reconciliation",
		Version: a.version,
		Long: `Bankmap ingests bank data sources (BankTrack, Banking on Climate Change,
GABV, Fair Finance Guide, switchit, Market Forces, the US NIC registry,
Wikidata and staff overrides) into one canonical record per bank, rates
each bank and reconciles a remote table against the result.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.bankmap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("bankmap {{.Version}}\n")
	rootCmd.SetOut(a.out)

	rootCmd.AddCommand(
		a.NewBuildCommand(),
		a.NewSyncCommand(),
		a.NewBackupCommand(),
		a.NewProvenanceCommand(),
		a.NewVersionCommand(),
	)
	return rootCmd
}

// setupCommand reloads the config when --config is given, applies the
// global flags and rebuilds the logger. The rebuilt logger also becomes
// the process default so packages without an injected logger follow it.
func (a *App) setupCommand(flags *globalFlags) error {
	if flags.configFile != "" {
		config, err := LoadConfig(flags.configFile)
		if err != nil {
			return err
		}
		a.config = config

		a.mu.Lock()
		a.bankmap = nil
		a.mu.Unlock()
	}
	a.config.UpdateFromFlags(flags.verbose, flags.quiet, flags.logLevel)

	logging.Configure(loggerConfig(a.config))
	logger := *logging.Default()
	a.logger = &logger
	return nil
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
